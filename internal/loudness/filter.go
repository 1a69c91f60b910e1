package loudness

import (
	"strconv"
	"strings"
)

// FilterSpec is an ordered set of named parameters for one ffmpeg filter.
// Keys render in insertion order so the generated filter string is
// deterministic and testable.
type FilterSpec struct {
	Name string
	opts []filterOpt
}

type filterOpt struct {
	key   string
	value string
}

// Set appends a parameter. Keys are not deduplicated; callers set each key
// once.
func (s *FilterSpec) Set(key, value string) {
	s.opts = append(s.opts, filterOpt{key: key, value: value})
}

// SetFloat appends a numeric parameter.
func (s *FilterSpec) SetFloat(key string, value float64) {
	s.Set(key, formatNum(value))
}

// String renders the filter in ffmpeg filter-graph syntax:
// name=key=value:key=value.
func (s *FilterSpec) String() string {
	if len(s.opts) == 0 {
		return s.Name
	}
	parts := make([]string, 0, len(s.opts))
	for _, o := range s.opts {
		parts = append(parts, o.key+"="+o.value)
	}
	return s.Name + "=" + strings.Join(parts, ":")
}

// VolumeFilter renders the simple gain filter applied in peak/RMS modes.
func VolumeFilter(adjustment float64) string {
	return "volume=" + formatNum(adjustment) + "dB"
}

// MeasureAstatsFilter returns the first-pass astats filter used to measure
// overall peak and RMS levels for peak/RMS normalisation.
func MeasureAstatsFilter() string {
	return "astats=measure_overall=Peak_level+RMS_level:measure_perchannel=0"
}

// MeasureLoudnormFilter returns the first-pass loudnorm filter used to
// measure EBU R128 statistics. The JSON report it prints is consumed by
// ParseLoudnorm.
func MeasureLoudnormFilter(t Targets) string {
	spec := FilterSpec{Name: "loudnorm"}
	spec.SetFloat("i", t.TargetLevel)
	spec.SetFloat("lra", t.LoudnessRange)
	spec.SetFloat("tp", t.TruePeak)
	spec.SetFloat("offset", t.Offset)
	spec.Set("print_format", "json")
	if t.DualMono {
		spec.Set("dual_mono", "true")
	}
	return spec.String()
}

// formatNum renders a float the way ffmpeg filter options expect: shortest
// representation that round-trips, no trailing zeros.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// boolToString converts a bool to loudnorm's expected string format.
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
