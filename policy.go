package closureruntime

// MutationPolicy governs whether a by-reference context change made during
// invocation is written back into the closure's context or discarded.
type MutationPolicy uint8

const (
	// WriteBack stores the mutated context after each invocation.
	WriteBack MutationPolicy = iota
	// Discard drops mutations; every invocation observes the original context.
	Discard
)

func (p MutationPolicy) String() string {
	switch p {
	case WriteBack:
		return "write-back"
	case Discard:
		return "discard"
	default:
		return "unknown"
	}
}

// ErrorPolicy selects which failures a resilient invocation converts into a
// failed result instead of returning them.
type ErrorPolicy uint8

const (
	// HandleExpected suppresses everything except construction errors
	// (callback shape does not match the requested types).
	HandleExpected ErrorPolicy = iota
	// HandleAll suppresses every failure, construction errors included.
	HandleAll
	// HandleNone suppresses nothing: errors are returned and panics re-raised.
	HandleNone
)

func (p ErrorPolicy) String() string {
	switch p {
	case HandleExpected:
		return "handle-expected"
	case HandleAll:
		return "handle-all"
	case HandleNone:
		return "handle-none"
	default:
		return "unknown"
	}
}

// Void stands in for an absent argument or return value in shapes that
// take no argument or produce no result.
type Void = struct{}
