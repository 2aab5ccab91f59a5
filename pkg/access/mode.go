package access

// Mode selects one of the three access protocols.
type Mode uint8

const (
	// ModeCustom works on a value read and written by a single serializer.
	ModeCustom Mode = iota + 1
	// ModeSpecification works on a compound view validated against a specification.
	ModeSpecification
	// ModeLinked works on a typed instance hydrated through a link.
	ModeLinked
)

func (m Mode) String() string {
	switch m {
	case ModeCustom:
		return "cs"
	case ModeSpecification:
		return "ss"
	case ModeLinked:
		return "lss"
	default:
		return "unknown"
	}
}

// State is the position of an access cycle.
type State uint8

const (
	StateIdle State = iota
	StateRegionAcquired
	StateComputationRunning
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegionAcquired:
		return "region-acquired"
	case StateComputationRunning:
		return "computation-running"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
