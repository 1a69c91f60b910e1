package media

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/levelwise/levelwise/internal/ffmpeg"
	"github.com/levelwise/levelwise/internal/loudness"
)

// Options configures one normalisation run. It is shared read-only across
// all streams of a file.
type Options struct {
	Mode    loudness.Mode
	Targets loudness.Targets

	// PreFilter and PostFilter are user filter chains inserted before the
	// measurement/normalisation filter and after it, respectively.
	PreFilter  string
	PostFilter string

	// AudioCodec overrides the output codec. Empty selects a PCM codec
	// matching each stream's bit depth.
	AudioCodec   string
	AudioBitrate string // e.g. "192k", empty for codec default
	Format       string // output container format override, empty to infer

	// DryRun plans the second pass but skips the encoding pass.
	DryRun bool
}

// StreamPlan is the per-stream outcome of the measurement and planning
// passes.
type StreamPlan struct {
	Index  int
	Filter string // second-pass filter expression for this stream

	// EBU mode: the validated first-pass report.
	Report *loudness.Report
	// EBU mode: the effective loudness-range target the plan used.
	EffectiveLRA float64
	// EBU mode: whether the plan fell back to dynamic normalisation.
	Dynamic bool

	// Peak/RMS modes: the scalar gain in dB.
	Adjustment float64
}

// Result summarises a completed normalisation run for one file.
type Result struct {
	InputPath  string
	OutputPath string
	Streams    []StreamPlan
	Skipped    bool // true when DryRun suppressed the encoding pass
}

// ProgressFunc receives pass progress. Pass 1 is measurement, pass 2 is
// encoding; frac is 0..1 within the pass.
type ProgressFunc func(pass int, passName string, frac float64)

// Normaliser runs the two-pass normalisation workflow for media files.
type Normaliser struct {
	Runner *ffmpeg.Runner
	Log    *slog.Logger
	Opts   Options
}

// Normalise measures every audio stream of input, plans the second pass,
// and encodes output with the planned filters applied.
func (n *Normaliser) Normalise(ctx context.Context, input, output string, progress ProgressFunc) (*Result, error) {
	probe, err := n.Runner.Probe(ctx, input)
	if err != nil {
		return nil, err
	}
	file, err := NewFile(n.Log, input, output, probe, n.Opts.Mode)
	if err != nil {
		return nil, err
	}

	result := &Result{InputPath: input, OutputPath: output}

	// Pass 1: measure each audio stream with a null-sink run.
	for i, stream := range file.Audio {
		if err := n.measure(ctx, stream, measureProgress(progress, i, len(file.Audio))); err != nil {
			return nil, err
		}
	}

	// Plan the second pass per stream.
	for _, stream := range file.Audio {
		plan, err := n.plan(stream)
		if err != nil {
			return nil, err
		}
		result.Streams = append(result.Streams, plan)
	}

	if n.Opts.DryRun {
		n.Log.Info("dry run, skipping encoding pass", slog.String("input", input))
		result.Skipped = true
		return result, nil
	}

	// Pass 2: one encoding run applying every stream's filter.
	args := n.encodeArgs(file, result.Streams)
	if progress != nil {
		progress(2, "Normalising", 0)
	}
	if _, err := n.Runner.Run(ctx, args, file.Duration, func(frac float64) {
		if progress != nil {
			progress(2, "Normalising", frac)
		}
	}); err != nil {
		return nil, fmt.Errorf("encoding pass for %s: %w", input, err)
	}
	if progress != nil {
		progress(2, "Normalising", 1)
	}

	return result, nil
}

// measure runs the first pass for one stream and stores its statistics.
func (n *Normaliser) measure(ctx context.Context, stream *AudioStream, cb func(float64)) error {
	var filter string
	switch n.Opts.Mode {
	case loudness.ModeEBU:
		filter = loudness.MeasureLoudnormFilter(n.Opts.Targets)
	default:
		filter = loudness.MeasureAstatsFilter()
	}

	n.Log.Info("running first pass", slog.String("stream", stream.String()),
		slog.String("mode", string(n.Opts.Mode)))

	chain := n.measureChain(stream, filter)
	output, err := n.Runner.Run(ctx, ffmpeg.MeasureArgs(stream.Path, chain), stream.Duration, cb)
	if err != nil {
		return fmt.Errorf("measurement pass for %s: %w", stream, err)
	}

	switch n.Opts.Mode {
	case loudness.ModeEBU:
		report, err := loudness.ParseLoudnorm(output)
		if err != nil {
			return fmt.Errorf("%s: %w", stream, err)
		}
		stream.Stats.EBU = report
	default:
		mean, max, err := loudness.ParseAstats(output)
		if err != nil {
			return fmt.Errorf("%s: %w", stream, err)
		}
		stream.Stats.Mean = &mean
		stream.Stats.Max = &max
	}
	return nil
}

// measureChain builds the first-pass filter chain for one stream: input
// label, optional user pre-filter, then the measurement filter.
func (n *Normaliser) measureChain(stream *AudioStream, filter string) string {
	label := fmt.Sprintf("[0:%d]", stream.Index)
	if n.Opts.PreFilter != "" {
		return label + n.Opts.PreFilter + "," + filter
	}
	return label + filter
}

// plan derives the second-pass filter for one measured stream.
func (n *Normaliser) plan(stream *AudioStream) (StreamPlan, error) {
	switch n.Opts.Mode {
	case loudness.ModeEBU:
		plan, err := loudness.PlanSecondPass(n.Log, stream.Stats.EBU, n.Opts.Targets)
		if err != nil {
			return StreamPlan{}, fmt.Errorf("%s: %w", stream, err)
		}
		return StreamPlan{
			Index:        stream.Index,
			Filter:       plan.Filter.String(),
			Report:       stream.Stats.EBU,
			EffectiveLRA: plan.EffectiveLRA,
			Dynamic:      plan.Dynamic,
		}, nil
	default:
		adj, err := loudness.Adjustment(n.Log, stream.Stats, n.Opts.Mode, n.Opts.Targets.TargetLevel)
		if err != nil {
			return StreamPlan{}, fmt.Errorf("%s: %w", stream, err)
		}
		return StreamPlan{
			Index:      stream.Index,
			Filter:     loudness.VolumeFilter(adj),
			Adjustment: adj,
		}, nil
	}
}

// encodeArgs builds the single encoding invocation for the second pass:
// every audio stream runs through its planned filter, video and subtitle
// streams are copied through.
func (n *Normaliser) encodeArgs(file *File, plans []StreamPlan) []string {
	chains := make([]string, 0, len(plans))
	for i, plan := range plans {
		var parts []string
		if n.Opts.PreFilter != "" {
			parts = append(parts, n.Opts.PreFilter)
		}
		parts = append(parts, plan.Filter)
		if n.Opts.PostFilter != "" {
			parts = append(parts, n.Opts.PostFilter)
		}
		chains = append(chains, fmt.Sprintf("[0:%d]%s[a%d]", plan.Index, strings.Join(parts, ","), i))
	}

	args := []string{
		"-nostdin", "-y",
		"-i", file.Input,
		"-filter_complex", strings.Join(chains, ";"),
	}

	for i, stream := range file.Audio {
		args = append(args, "-map", fmt.Sprintf("[a%d]", i))
		codec := n.Opts.AudioCodec
		if codec == "" {
			codec = stream.PCMCodec(n.Log)
		}
		args = append(args, fmt.Sprintf("-c:a:%d", i), codec)
	}
	if n.Opts.AudioBitrate != "" {
		args = append(args, "-b:a", n.Opts.AudioBitrate)
	}
	if n.Opts.Targets.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(n.Opts.Targets.SampleRate))
	}

	if len(file.Video) > 0 {
		args = append(args, "-map", "0:v", "-c:v", "copy")
	}
	if len(file.Subtitle) > 0 {
		args = append(args, "-map", "0:s", "-c:s", "copy")
	}

	if n.Opts.Format != "" {
		args = append(args, "-f", n.Opts.Format)
	}

	return append(args, file.Output)
}

// measureProgress scales one stream's measurement progress into the
// file-level pass 1 fraction.
func measureProgress(progress ProgressFunc, streamIdx, total int) func(float64) {
	if progress == nil {
		return nil
	}
	return func(frac float64) {
		progress(1, "Measuring", (float64(streamIdx)+frac)/float64(total))
	}
}
