// Package ffprobe shells out to ffprobe to read container metadata from
// uploaded video assets, primarily the duration the frame sampler spaces its
// captures across.
package ffprobe
