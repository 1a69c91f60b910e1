package loudness

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const astatsOutput = `[Parsed_astats_0 @ 0x556a913d6f00] Overall
[Parsed_astats_0 @ 0x556a913d6f00] Peak level dB: -1.2
[Parsed_astats_0 @ 0x556a913d6f00] RMS level dB: -23.0
size=N/A time=00:03:12.00 bitrate=N/A speed= 401x
`

func TestParseAstats(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		mean, max, err := ParseAstats(astatsOutput)
		if err != nil {
			t.Fatalf("ParseAstats failed: %v", err)
		}
		if mean != -23.0 {
			t.Errorf("mean = %v, want -23.0", mean)
		}
		if max != -1.2 {
			t.Errorf("max = %v, want -1.2", max)
		}
	})

	t.Run("placeholder means negative infinity", func(t *testing.T) {
		output := "Peak level dB: -\nRMS level dB: -\n"
		mean, max, err := ParseAstats(output)
		if err != nil {
			t.Fatalf("ParseAstats failed: %v", err)
		}
		if !math.IsInf(mean, -1) {
			t.Errorf("mean = %v, want -Inf", mean)
		}
		if !math.IsInf(max, -1) {
			t.Errorf("max = %v, want -Inf", max)
		}
	})

	t.Run("missing RMS label is fatal", func(t *testing.T) {
		_, _, err := ParseAstats("Peak level dB: -1.2\n")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if !strings.Contains(parseErr.Error(), "mean volume") {
			t.Errorf("error should name the missing statistic, got: %v", parseErr)
		}
	})

	t.Run("missing peak label is fatal", func(t *testing.T) {
		_, _, err := ParseAstats("RMS level dB: -23.0\n")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
	})
}

// loudnormOutput mimics a real first-pass log: progress noise, the filter
// header with its context pointer, then the pretty-printed JSON report.
// The normalization_type field is extra and must be ignored.
const loudnormOutput = `size=N/A time=00:03:12.00 bitrate=N/A speed= 399x
[Parsed_loudnorm_0 @ 0x5645b11e2c80]
{
	"input_i" : "-27.23",
	"input_tp" : "-14.16",
	"input_lra" : "18.06",
	"input_thresh" : "-39.25",
	"output_i" : "-24.29",
	"output_tp" : "-2.00",
	"output_lra" : "6.90",
	"output_thresh" : "-34.93",
	"normalization_type" : "dynamic",
	"target_offset" : "1.29"
}
`

func TestParseLoudnorm(t *testing.T) {
	t.Run("full report", func(t *testing.T) {
		report, err := ParseLoudnorm(loudnormOutput)
		if err != nil {
			t.Fatalf("ParseLoudnorm failed: %v", err)
		}

		want := Report{
			InputI:       -27.23,
			InputTP:      -14.16,
			InputLRA:     18.06,
			InputThresh:  -39.25,
			OutputI:      -24.29,
			OutputTP:     -2.00,
			OutputLRA:    6.90,
			OutputThresh: -34.93,
			TargetOffset: 1.29,
		}
		if *report != want {
			t.Errorf("report = %+v, want %+v", *report, want)
		}
	})

	t.Run("infinite values become sentinels", func(t *testing.T) {
		output := strings.Replace(loudnormOutput, `"input_i" : "-27.23"`, `"input_i" : "-inf"`, 1)
		output = strings.Replace(output, `"input_tp" : "-14.16"`, `"input_tp" : "inf"`, 1)

		report, err := ParseLoudnorm(output)
		if err != nil {
			t.Fatalf("ParseLoudnorm failed: %v", err)
		}
		if report.InputI != SentinelNegInf {
			t.Errorf("input_i = %v, want sentinel %v", report.InputI, SentinelNegInf)
		}
		if report.InputTP != SentinelPosInf {
			t.Errorf("input_tp = %v, want sentinel %v", report.InputTP, SentinelPosInf)
		}
	})

	t.Run("numeric fields accepted", func(t *testing.T) {
		output := strings.Replace(loudnormOutput, `"input_lra" : "18.06"`, `"input_lra" : 18.06`, 1)
		report, err := ParseLoudnorm(output)
		if err != nil {
			t.Fatalf("ParseLoudnorm failed: %v", err)
		}
		if report.InputLRA != 18.06 {
			t.Errorf("input_lra = %v, want 18.06", report.InputLRA)
		}
	})

	t.Run("no header", func(t *testing.T) {
		_, err := ParseLoudnorm("size=N/A time=00:03:12.00\n")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if !strings.Contains(parseErr.Error(), "no loudnorm-related output found") {
			t.Errorf("unexpected message: %v", parseErr)
		}
	})

	t.Run("header without closing brace", func(t *testing.T) {
		output := "[Parsed_loudnorm_0 @ 0x1234]\n{\n\t\"input_i\" : \"-27.23\"\n"
		_, err := ParseLoudnorm(output)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if !strings.Contains(parseErr.Error(), "no loudnorm-related output found") {
			t.Errorf("unexpected message: %v", parseErr)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		output := strings.Replace(loudnormOutput, "\t\"input_lra\" : \"18.06\",\n", "", 1)
		_, err := ParseLoudnorm(output)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if !strings.Contains(parseErr.Error(), "input_lra") {
			t.Errorf("error should name the missing field, got: %v", parseErr)
		}
	})

	t.Run("malformed JSON wraps the decode error", func(t *testing.T) {
		output := "[Parsed_loudnorm_0 @ 0x1234]\n{ not json\n}\n"
		_, err := ParseLoudnorm(output)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if parseErr.Unwrap() == nil {
			t.Error("decode failure should carry the underlying error")
		}
	})

	t.Run("non-numeric field value", func(t *testing.T) {
		output := strings.Replace(loudnormOutput, `"input_thresh" : "-39.25"`, `"input_thresh" : "n/a"`, 1)
		_, err := ParseLoudnorm(output)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if !strings.Contains(parseErr.Error(), "input_thresh") {
			t.Errorf("error should name the bad field, got: %v", parseErr)
		}
	})

	t.Run("scan stops at first closing brace", func(t *testing.T) {
		// A second report after the first must not confuse the scan.
		output := loudnormOutput + "[Parsed_loudnorm_0 @ 0x5645b11e2c80]\n{\n\t\"input_i\" : \"-99.0\"\n}\n"
		report, err := ParseLoudnorm(output)
		if err != nil {
			t.Fatalf("ParseLoudnorm failed: %v", err)
		}
		if report.InputI != -27.23 {
			t.Errorf("input_i = %v, want the first report's -27.23", report.InputI)
		}
	})
}
