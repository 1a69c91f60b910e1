// Package ffmpeg invokes the external FFmpeg tools as subprocesses and
// captures the text output the rest of the application parses.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Runner locates and executes the ffmpeg and ffprobe binaries.
type Runner struct {
	FFmpeg  string
	FFprobe string
	Log     *slog.Logger
}

// NewRunner resolves the ffmpeg and ffprobe binaries from PATH. The
// FFMPEG_PATH and FFPROBE_PATH environment variables override the lookup.
func NewRunner(log *slog.Logger) (*Runner, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{Log: log}

	var err error
	r.FFmpeg, err = resolve("FFMPEG_PATH", "ffmpeg")
	if err != nil {
		return nil, err
	}
	r.FFprobe, err = resolve("FFPROBE_PATH", "ffprobe")
	if err != nil {
		return nil, err
	}
	return r, nil
}

func resolve(envVar, name string) (string, error) {
	if override := os.Getenv(envVar); override != "" {
		name = override
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("could not find %s: %w", name, err)
	}
	return path, nil
}

// MeasureArgs builds a null-sink invocation: decode the input, run the
// given filter graph, discard the output. Used for both measurement modes;
// everything of interest arrives on stderr.
func MeasureArgs(input, filterComplex string) []string {
	return []string{
		"-nostdin", "-y",
		"-i", input,
		"-filter_complex", filterComplex,
		"-vn", "-sn",
		"-f", "null", os.DevNull,
	}
}

// Run executes ffmpeg with the given arguments and returns its captured
// stderr output. FFmpeg logs filters, measurements and progress on stderr;
// stdout carries muxed media and is discarded here.
//
// durationSecs, when positive, enables progress reporting: each progress
// line's time= field is parsed and reported to cb as a fraction of the
// duration.
func (r *Runner) Run(ctx context.Context, args []string, durationSecs float64, cb func(progress float64)) (string, error) {
	r.Log.Debug("running ffmpeg", slog.String("args", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, r.FFmpeg, args...)
	cmd.Stdout = nil

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting ffmpeg: %w", err)
	}

	var captured strings.Builder
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		line := scanner.Text()
		captured.WriteString(line)
		captured.WriteByte('\n')

		if cb != nil && durationSecs > 0 {
			if t, ok := parseProgressTime(line); ok {
				progress := t / durationSecs
				if progress > 1 {
					progress = 1
				}
				cb(progress)
			}
		}
	}

	waitErr := cmd.Wait()
	if scanErr := scanner.Err(); waitErr == nil && scanErr != nil {
		waitErr = scanErr
	}
	if waitErr != nil {
		return captured.String(), fmt.Errorf("ffmpeg failed: %w\n%s", waitErr, tail(captured.String(), 8))
	}
	return captured.String(), nil
}

// scanStatusLines splits on \n or \r. FFmpeg rewrites its status line with
// carriage returns, so a plain line scanner would buffer every progress
// update into one giant line.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// progressTimeRe matches the time= field of an ffmpeg status line, e.g.
// "size=N/A time=00:03:12.48 bitrate=N/A speed= 401x".
var progressTimeRe = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// parseProgressTime extracts the processed duration in seconds from a
// status line.
func parseProgressTime(line string) (float64, bool) {
	m := progressTimeRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.ParseFloat(m[1], 64)
	mins, _ := strconv.ParseFloat(m[2], 64)
	secs, _ := strconv.ParseFloat(m[3], 64)
	return hours*3600 + mins*60 + secs, true
}

// tail returns the last n lines of output, for error messages.
func tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
