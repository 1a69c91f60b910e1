package loudness

import (
	"fmt"
	"log/slog"
	"math"
)

// Plan is the outcome of second-pass planning for one stream.
type Plan struct {
	// Filter is the loudnorm filter to apply during the encoding pass.
	Filter FilterSpec
	// EffectiveLRA is the loudness-range target actually planned for. It
	// differs from Targets.LoudnessRange when KeepLoudnessRange substituted
	// the measured input range. Returned explicitly so callers never share
	// mutable target state between streams.
	EffectiveLRA float64
	// Dynamic reports whether the plan fell back to dynamic normalisation.
	Dynamic bool
}

// PlanSecondPass derives the second-pass loudnorm filter from a validated
// first-pass report and the caller's targets.
//
// Linear normalisation is silently upgraded to dynamic when the measured
// input loudness range exceeds the (possibly overridden) target range: a
// single linear gain cannot satisfy both the level and range targets in
// that case.
func PlanSecondPass(log *slog.Logger, report *Report, t Targets) (*Plan, error) {
	if log == nil {
		log = slog.Default()
	}
	if report == nil {
		return nil, &PlannerError{Msg: "first pass not run, parse the loudnorm measurement first"}
	}

	// Integrated loudness above 0 LUFS is physically implausible and would
	// invert the gain direction. Cap before the clamp pass so downstream
	// warnings see the corrected value.
	inputI := report.InputI
	if inputI > 0 {
		log.Warn("measured input loudness greater than zero, capping at 0",
			slog.Float64("input_i", inputI))
		inputI = 0
	}

	dynamic := t.Dynamic

	lra := t.LoudnessRange
	if t.KeepLoudnessRange {
		log.Debug("keeping input loudness range for second pass")
		lra = report.InputLRA
	}

	// Compare against the post-override range: keeping the input range makes
	// linear normalisation feasible again.
	if lra < report.InputLRA && !dynamic {
		log.Warn("input loudness range exceeds target, reverting to dynamic normalisation; "+
			"choose a higher target loudness range for linear normalisation, "+
			"or keep the input loudness range as the target",
			slog.Float64("input_lra", report.InputLRA),
			slog.Float64("target_lra", lra))
		dynamic = true
	}

	if dynamic && t.SampleRate == 0 {
		log.Warn("in dynamic mode the loudnorm filter sets the sample rate to 192 kHz; " +
			"specify a fixed sample rate to override it")
	}

	spec := FilterSpec{Name: "loudnorm"}
	spec.SetFloat("i", t.TargetLevel)
	spec.SetFloat("lra", lra)
	spec.SetFloat("tp", t.TruePeak)
	spec.SetFloat("offset", constrain(log, report.TargetOffset, -99, 99, "target_offset"))
	spec.SetFloat("measured_i", constrain(log, inputI, -99, 0, "input_i"))
	spec.SetFloat("measured_lra", constrain(log, report.InputLRA, 0, 99, "input_lra"))
	spec.SetFloat("measured_tp", constrain(log, report.InputTP, -99, 99, "input_tp"))
	spec.SetFloat("measured_thresh", constrain(log, report.InputThresh, -99, 0, "input_thresh"))
	spec.Set("linear", boolToString(!dynamic))
	spec.Set("print_format", "json")
	if t.DualMono {
		spec.Set("dual_mono", "true")
	}

	return &Plan{Filter: spec, EffectiveLRA: lra, Dynamic: dynamic}, nil
}

// Adjustment computes the scalar gain in dB for peak or RMS normalisation.
// The gain is returned even when it predicts clipping; the clip amount is
// logged as a warning and left to the caller's judgement.
func Adjustment(log *slog.Logger, stats Stats, mode Mode, targetLevel float64) (float64, error) {
	if log == nil {
		log = slog.Default()
	}

	var adjustment float64
	switch mode {
	case ModePeak:
		if stats.Max == nil {
			return 0, &PlannerError{Msg: "first pass not run, parse the astats measurement first"}
		}
		adjustment = targetLevel - *stats.Max
	case ModeRMS:
		if stats.Mean == nil {
			return 0, &PlannerError{Msg: "first pass not run, parse the astats measurement first"}
		}
		adjustment = targetLevel - *stats.Mean
	default:
		return 0, &PlannerError{Msg: "can only compute adjustment for peak and RMS normalisation"}
	}

	log.Info("adjusting stream gain",
		slog.Float64("adjustment_db", adjustment),
		slog.Float64("target_level", targetLevel))

	if stats.Max != nil && *stats.Max+adjustment > 0 {
		log.Warn("adjustment will lead to clipping",
			slog.Float64("clip_db", *stats.Max+adjustment))
	}

	return adjustment, nil
}

// constrain clamps v to the inclusive [lo, hi] range, logging the change
// under the given field name when the value moves. Calling with lo > hi is
// a programming error, not a runtime condition.
func constrain(log *slog.Logger, v, lo, hi float64, name string) float64 {
	if lo > hi {
		panic(fmt.Sprintf("loudness: constrain %s: min %v greater than max %v", name, lo, hi))
	}
	result := math.Max(math.Min(v, hi), lo)
	if result != v {
		log.Warn("constraining value to safe range",
			slog.String("field", name),
			slog.Float64("min", lo),
			slog.Float64("max", hi),
			slog.Float64("from", v),
			slog.Float64("to", result))
	}
	return result
}
