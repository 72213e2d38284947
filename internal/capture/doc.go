// Package capture drives the four scan acquisition flows. One generic
// coordinator covers camera, image upload, manual entry, and video batch;
// the flows differ only in how a candidate identifier is acquired, so the
// duplicate, geolocation, and persistence logic lives in exactly one place.
//
// Recognition and persistence errors are resolved here and reported to the
// operator; they never escape to the audit log or ledger. Nothing is retried
// automatically, every retry is an operator-initiated repeat.
package capture
