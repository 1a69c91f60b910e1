package loudness

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// astats prints a "-" instead of a number when there is no signal to
// measure. The capture group accepts either form.
var (
	rmsLevelRe  = regexp.MustCompile(`RMS level dB: ([-\d.]+)`)
	peakLevelRe = regexp.MustCompile(`Peak level dB: ([-\d.]+)`)
)

// loudnormHeader marks the start of the loudnorm filter's output block in
// the engine log. The JSON object follows on the next line and ends at the
// first line beginning with a closing brace.
const loudnormHeader = "[Parsed_loudnorm"

// reportFields are the nine fields a loudnorm measurement report must
// contain. Validation order is fixed so error messages are deterministic.
var reportFields = []string{
	"input_i",
	"input_tp",
	"input_lra",
	"input_thresh",
	"output_i",
	"output_tp",
	"output_lra",
	"output_thresh",
	"target_offset",
}

// ParseAstats extracts the mean (RMS) and max (peak) volume from the
// captured output of an astats measurement pass. A "-" placeholder parses
// as negative infinity. A missing label means the filter never ran and is
// a *ParseError.
func ParseAstats(output string) (mean, max float64, err error) {
	mean, err = parseAstatsLevel(rmsLevelRe, output, "mean volume")
	if err != nil {
		return 0, 0, err
	}
	max, err = parseAstatsLevel(peakLevelRe, output, "max volume")
	if err != nil {
		return 0, 0, err
	}
	return mean, max, nil
}

func parseAstatsLevel(re *regexp.Regexp, output, what string) (float64, error) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0, &ParseError{Msg: fmt.Sprintf("could not get %s from measurement output", what)}
	}
	if m[1] == "-" {
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ParseError{Msg: fmt.Sprintf("could not parse %s", what), Err: err}
	}
	return v, nil
}

// ParseLoudnorm extracts and validates the JSON report embedded in the
// captured output of a loudnorm measurement pass.
//
// The report is delimited by a header line starting with "[Parsed_loudnorm"
// and terminated by the first subsequent line that begins with a closing
// brace (the brace line is part of the JSON). This is a deliberate
// line-scan contract matching the engine's output format; loudnorm never
// nests objects, so no brace balancing is attempted.
func ParseLoudnorm(output string) (*Report, error) {
	lines := strings.Split(output, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	start, end := -1, -1
	for i, line := range lines {
		if strings.HasPrefix(line, loudnormHeader) {
			start = i + 1
			continue
		}
		if start != -1 && strings.HasPrefix(line, "}") {
			end = i + 1
			break
		}
	}
	if start == -1 || end == -1 {
		return nil, &ParseError{Msg: "could not parse loudnorm stats; no loudnorm-related output found"}
	}

	return validateReport([]byte(strings.Join(lines[start:end], "\n")))
}

// validateReport decodes the raw report and coerces all nine required
// fields to finite numbers. loudnorm emits values as JSON strings which may
// read "-inf" or "inf"; those become the documented sentinels. A missing or
// unparsable field is a *ParseError.
func validateReport(data []byte) (*Report, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Msg: "could not parse loudnorm stats; wrong JSON format in string", Err: err}
	}

	values := make(map[string]float64, len(reportFields))
	for _, field := range reportFields {
		v, ok := raw[field]
		if !ok {
			return nil, &ParseError{Msg: fmt.Sprintf("could not parse loudnorm stats; missing field %q", field)}
		}
		f, err := fieldToFloat(v)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("could not parse loudnorm stats; field %q is not a number", field), Err: err}
		}
		switch {
		case math.IsInf(f, -1):
			values[field] = SentinelNegInf
		case math.IsInf(f, 1):
			values[field] = SentinelPosInf
		default:
			values[field] = f
		}
	}

	return &Report{
		InputI:       values["input_i"],
		InputTP:      values["input_tp"],
		InputLRA:     values["input_lra"],
		InputThresh:  values["input_thresh"],
		OutputI:      values["output_i"],
		OutputTP:     values["output_tp"],
		OutputLRA:    values["output_lra"],
		OutputThresh: values["output_thresh"],
		TargetOffset: values["target_offset"],
	}, nil
}

// fieldToFloat accepts the two value shapes loudnorm emits: a JSON string
// (the usual case, possibly "-inf"/"inf") or a bare number.
func fieldToFloat(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected JSON type %T", v)
	}
}
