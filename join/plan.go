package join

// Side names one of the two join inputs in user order.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// SideInfo is what the planner knows about one input before reading it.
type SideInfo struct {
	// Size is the source byte size, or -1 when unknown.
	Size int64
	// Identity is the stream instance. Two sides with the same non-nil
	// identity are the same stream.
	Identity any
}

// Decision is the physical shape of a join.
type Decision struct {
	Build Side
	Probe Side
	// BuildOuter emits unmatched build rows after the probe side is
	// exhausted; ProbeOuter emits unmatched probe rows as they are read.
	BuildOuter bool
	ProbeOuter bool
	// Swapped is set when the left side is hashed.
	Swapped bool
	Self    bool
}

// Plan decides which side to hash. The right side is hashed unless the left
// size is known and either the right size is unknown or the left is smaller.
func Plan(left, right SideInfo, leftOuter, rightOuter bool) Decision {
	if left.Identity != nil && left.Identity == right.Identity {
		return Decision{Build: Right, Probe: Left, Self: true}
	}
	if left.Size >= 0 && (right.Size < 0 || left.Size < right.Size) {
		return Decision{
			Build:      Left,
			Probe:      Right,
			BuildOuter: leftOuter,
			ProbeOuter: rightOuter,
			Swapped:    true,
		}
	}
	return Decision{
		Build:      Right,
		Probe:      Left,
		BuildOuter: rightOuter,
		ProbeOuter: leftOuter,
	}
}
