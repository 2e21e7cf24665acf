package engine

// Status is the per-node outcome recorded across one run.
type Status int

const (
	// StatusUntested marks a node that was visited but never attempted,
	// typically because a dependency blocked it.
	StatusUntested Status = iota
	// StatusSucceeded marks a node whose first check passed.
	StatusSucceeded
	// StatusEventuallySucceeded marks a node whose check failed but
	// whose run-then-recheck sequence passed. Distinguished from
	// StatusSucceeded so callers can tell recovered jobs apart.
	StatusEventuallySucceeded
	// StatusFailed marks a node whose attempt ended in failure.
	StatusFailed
)

// OK reports whether the status counts as success for blocking and
// overall-success purposes.
func (s Status) OK() bool {
	return s == StatusSucceeded || s == StatusEventuallySucceeded
}

func (s Status) String() string {
	switch s {
	case StatusUntested:
		return "untested"
	case StatusSucceeded:
		return "succeeded"
	case StatusEventuallySucceeded:
		return "eventually-succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
