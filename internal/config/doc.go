// Package config loads, normalizes, and validates lotscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LOTSCAN_RECOGNITION_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, from the audit log location to the recognition
// endpoint credentials and the audit location roster.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
