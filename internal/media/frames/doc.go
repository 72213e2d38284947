// Package frames extracts evenly spaced still frames from an uploaded video
// asset so the recognition service can read identifiers from them.
//
// Every call re-samples from scratch; nothing is cached between calls. The
// timestamp computation is a pure function so the spacing rules are testable
// without ffmpeg installed.
package frames
