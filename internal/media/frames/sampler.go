package frames

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lotscan/internal/media/ffprobe"
)

// assumedDurationSeconds is used when the container reports no duration
// (streaming formats, truncated uploads). Sampling accuracy is traded for
// availability: the batch still produces frames from the asset's head.
const assumedDurationSeconds = 10.0

const defaultFrameCount = 8

// ErrDecode indicates the asset could not be opened or decoded at all. The
// capture attempt fails; other attempts in the session are unaffected.
var ErrDecode = errors.New("video decode failed")

// Options configures a sampling pass.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	FrameCount    int
	// Quality is the ffmpeg -q:v factor for the emitted JPEGs (2 best, 31 worst).
	Quality int
}

// Timestamps computes count seek positions evenly spaced across duration.
// The first position sits at t=0 and the last strictly before the duration so
// a seek never lands past end-of-stream.
func Timestamps(duration float64, count int) []float64 {
	if count <= 0 || duration <= 0 {
		return nil
	}
	out := make([]float64, count)
	step := duration / float64(count)
	for i := range out {
		out[i] = step * float64(i)
	}
	return out
}

// Sample extracts evenly spaced JPEG stills from the video at path. When the
// container duration cannot be determined the pass assumes a short asset
// rather than failing. The returned slices are ordered by timestamp.
func Sample(ctx context.Context, path string, opts Options) ([][]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrDecode)
	}
	count := opts.FrameCount
	if count <= 0 {
		count = defaultFrameCount
	}
	quality := opts.Quality
	if quality < 2 || quality > 31 {
		quality = 2
	}

	duration := assumedDurationSeconds
	if probed, err := ffprobe.Inspect(ctx, opts.FFprobeBinary, path); err == nil {
		if d := probed.DurationSeconds(); d > 0 {
			duration = d
		}
	}

	workDir, err := os.MkdirTemp("", "lotscan-frames-")
	if err != nil {
		return nil, fmt.Errorf("frame sampler: temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	ffmpeg := strings.TrimSpace(opts.FFmpegBinary)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	stills := make([][]byte, 0, count)
	for i, ts := range Timestamps(duration, count) {
		dest := filepath.Join(workDir, "frame-"+strconv.Itoa(i)+".jpg")
		if err := extractStill(ctx, ffmpeg, path, ts, quality, dest); err != nil {
			if i == 0 {
				return nil, fmt.Errorf("%w: %v", ErrDecode, err)
			}
			// Later seeks can fail on variable-duration containers; keep
			// whatever decoded cleanly.
			continue
		}
		data, err := os.ReadFile(dest)
		if err != nil || len(data) == 0 {
			if i == 0 {
				return nil, fmt.Errorf("%w: empty still at %.2fs", ErrDecode, ts)
			}
			continue
		}
		stills = append(stills, data)
	}
	if len(stills) == 0 {
		return nil, fmt.Errorf("%w: no frames produced", ErrDecode)
	}
	return stills, nil
}

func extractStill(ctx context.Context, ffmpegBinary, source string, timestamp float64, quality int, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", source,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(quality),
		"-f", "image2",
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg still: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
