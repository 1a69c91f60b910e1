// Package loudness implements the per-stream normalisation decision logic:
// parsing raw measurement output from the FFmpeg engine, validating EBU R128
// loudness reports, and planning the second-pass filter that applies the
// correction.
package loudness

// Mode selects the normalisation algorithm for a stream.
type Mode string

const (
	// ModeEBU performs two-pass EBU R128 normalisation with loudnorm.
	ModeEBU Mode = "ebu"
	// ModePeak applies a constant gain based on the measured peak level.
	ModePeak Mode = "peak"
	// ModeRMS applies a constant gain based on the measured RMS level.
	ModeRMS Mode = "rms"
)

// Sentinel values used in validated EBU reports in place of infinite dB
// measurements. FFmpeg's loudnorm filter reports "-inf" for digital silence
// and "inf" for overflow; the second pass needs finite numbers, so these
// stand in by convention.
const (
	// SentinelNegInf replaces a measured negative infinity.
	SentinelNegInf = -99.0
	// SentinelPosInf replaces a measured positive infinity.
	SentinelPosInf = 0.0
)

// Stats holds the loudness statistics measured for one audio stream during
// the first pass. Fields are nil until the corresponding measurement has
// been parsed; exactly one of {Mean/Max, EBU} is populated per run.
type Stats struct {
	// Mean is the RMS level in dB from an astats scan. May be -Inf for
	// silent input.
	Mean *float64
	// Max is the peak level in dB from an astats scan. May be -Inf for
	// silent input.
	Max *float64
	// EBU is the validated report from a loudnorm measurement pass.
	EBU *Report
}

// Report is a validated loudnorm measurement report. Every field is finite:
// infinite measurements have been replaced by SentinelNegInf/SentinelPosInf
// during validation.
type Report struct {
	InputI       float64 // measured integrated loudness (LUFS)
	InputTP      float64 // measured true peak (dBTP)
	InputLRA     float64 // measured loudness range (LU)
	InputThresh  float64 // measured gating threshold (LUFS)
	OutputI      float64
	OutputTP     float64
	OutputLRA    float64
	OutputThresh float64
	TargetOffset float64 // gain offset calculated by loudnorm for the second pass
}

// Targets holds the caller-supplied normalisation targets. The planner
// reads but never mutates them; when KeepLoudnessRange overrides the range
// target, the effective value is returned in the Plan instead.
type Targets struct {
	TargetLevel       float64 // target integrated loudness (LUFS), or dB level for peak/RMS modes
	LoudnessRange     float64 // target loudness range (LU)
	TruePeak          float64 // target true peak ceiling (dBTP)
	Offset            float64 // gain offset for the measurement pass
	DualMono          bool    // treat mono input as dual-mono during measurement
	KeepLoudnessRange bool    // use the measured input loudness range as the target
	Dynamic           bool    // force dynamic (non-linear) normalisation
	SampleRate        int     // fixed output sample rate in Hz, 0 to keep the input rate
}
