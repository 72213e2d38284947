package ffprobe

import "testing"

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "7.5"},
			{CodecType: "audio", Duration: "8.0"},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if !result.HasVideoStream() {
		t.Fatal("expected a video stream")
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "7.5"},
			{CodecType: "audio", Duration: "8.0"},
		},
	}
	if result.DurationSeconds() != 8.0 {
		t.Fatalf("expected longest stream duration, got %v", result.DurationSeconds())
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0 for unparseable duration, got %v", result.DurationSeconds())
	}
	if result.HasVideoStream() {
		t.Fatal("expected no video stream")
	}
}
