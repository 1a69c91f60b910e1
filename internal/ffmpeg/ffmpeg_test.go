package ffmpeg

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

func TestParseProgressTime(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
		ok   bool
	}{
		{
			name: "status line",
			line: "size=N/A time=00:03:12.48 bitrate=N/A speed= 401x",
			want: 192.48,
			ok:   true,
		},
		{
			name: "hours",
			line: "size=N/A time=01:00:00.00 bitrate=N/A speed=12x",
			want: 3600,
			ok:   true,
		},
		{
			name: "no time field",
			line: "[Parsed_loudnorm_0 @ 0x5645b11e2c80]",
			ok:   false,
		},
		{
			name: "negative start noise",
			line: "frame=0 time=-577014:32:22.77",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseProgressTime(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("time = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanStatusLines(t *testing.T) {
	// FFmpeg rewrites its status line with \r; each update must come out
	// as its own token.
	input := "line one\nsize=N/A time=00:00:01.00\rsize=N/A time=00:00:02.00\rdone\n"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatusLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	want := []string{
		"line one",
		"size=N/A time=00:00:01.00",
		"size=N/A time=00:00:02.00",
		"done",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestMeasureArgs(t *testing.T) {
	args := MeasureArgs("input.wav", "[0:1]loudnorm=print_format=json")
	want := []string{
		"-nostdin", "-y",
		"-i", "input.wav",
		"-filter_complex", "[0:1]loudnorm=print_format=json",
		"-vn", "-sn",
		"-f", "null", os.DevNull,
	}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d: %q", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

const probeJSON = `{
	"streams": [
		{
			"index": 0,
			"codec_type": "video",
			"codec_name": "h264"
		},
		{
			"index": 1,
			"codec_type": "audio",
			"codec_name": "flac",
			"sample_rate": "48000",
			"channels": 2,
			"bits_per_sample": 0,
			"bits_per_raw_sample": "24",
			"duration": "185.3"
		},
		{
			"index": 2,
			"codec_type": "subtitle",
			"codec_name": "subrip"
		}
	],
	"format": {
		"format_name": "matroska,webm",
		"duration": "185.5"
	}
}`

func TestDecodeProbe(t *testing.T) {
	result, err := decodeProbe([]byte(probeJSON))
	if err != nil {
		t.Fatalf("decodeProbe failed: %v", err)
	}
	if len(result.Streams) != 3 {
		t.Fatalf("got %d streams, want 3", len(result.Streams))
	}

	audio := result.Streams[1]
	if audio.CodecType != "audio" {
		t.Errorf("codec_type = %q, want audio", audio.CodecType)
	}
	if audio.SampleRateHz() != 48000 {
		t.Errorf("sample rate = %d, want 48000", audio.SampleRateHz())
	}
	if audio.BitDepth() != 24 {
		t.Errorf("bit depth = %d, want 24", audio.BitDepth())
	}
	if got := result.DurationSeconds(audio); got != 185.3 {
		t.Errorf("duration = %v, want the stream's own 185.3", got)
	}

	// Video stream has no duration of its own; container value applies.
	if got := result.DurationSeconds(result.Streams[0]); got != 185.5 {
		t.Errorf("fallback duration = %v, want the container's 185.5", got)
	}
}
