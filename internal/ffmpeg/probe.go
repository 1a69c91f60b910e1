package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult is the decoded output of ffprobe -print_format json.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes one stream of the probed container. ffprobe
// reports several numeric fields as strings; accessors convert them.
type ProbeStream struct {
	Index            int    `json:"index"`
	CodecType        string `json:"codec_type"`
	CodecName        string `json:"codec_name"`
	SampleRate       string `json:"sample_rate"`
	Channels         int    `json:"channels"`
	BitsPerSample    int    `json:"bits_per_sample"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	Duration         string `json:"duration"`
}

// ProbeFormat describes the probed container.
type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// SampleRateHz returns the stream sample rate, or 0 if unknown.
func (s ProbeStream) SampleRateHz() int {
	v, err := strconv.Atoi(s.SampleRate)
	if err != nil {
		return 0
	}
	return v
}

// BitDepth returns the effective bit depth of the stream, preferring the
// raw sample size (set for padded formats like 24-in-32). 0 if unknown.
func (s ProbeStream) BitDepth() int {
	if v, err := strconv.Atoi(s.BitsPerRawSample); err == nil && v > 0 {
		return v
	}
	return s.BitsPerSample
}

// DurationSeconds returns the stream duration, falling back to the
// container duration when the stream does not carry one. 0 if unknown.
func (r *ProbeResult) DurationSeconds(s ProbeStream) float64 {
	if v, err := strconv.ParseFloat(s.Duration, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil {
		return v
	}
	return 0
}

// Probe enumerates the streams and format of a media file.
func (r *Runner) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, r.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return decodeProbe(out)
}

func decodeProbe(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	return &result, nil
}
