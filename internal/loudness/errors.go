package loudness

// ParseError reports measurement-engine output that could not be parsed:
// an expected field label was absent, or the embedded loudnorm JSON was
// malformed or incomplete. It is always fatal to the stream being
// normalised; re-parsing the same text cannot succeed.
type ParseError struct {
	Msg string
	Err error // underlying decode error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// PlannerError reports a planner invoked out of order (no prior
// measurement) or with an unsupported normalisation mode.
type PlannerError struct {
	Msg string
}

func (e *PlannerError) Error() string { return e.Msg }
