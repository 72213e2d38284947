// Package vin normalizes and validates vehicle identification numbers and
// extracts candidate identifiers from recognition output.
//
// Two parsing shapes exist. Single mode (camera, image upload, manual entry)
// strips everything outside the VIN alphabet and demands exactly 17
// characters. Multi mode (video) accepts a JSON array of strings or falls
// back to scanning free text for identifier-shaped runs, with a deliberately
// widened 10-20 character acceptance band because multi-frame recognition
// output is noisier than a single framed plate.
//
// Both stages are pure functions over text so they can be tested without a
// recognition call.
package vin
