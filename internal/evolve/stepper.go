package evolve

// Status is the outcome of a single integration step.
type Status int

const (
	// Continue proceeds to the next step.
	Continue Status = iota + 1
	// End terminates the step loop; remaining steps keep whatever values
	// initialization left in them.
	End
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case End:
		return "end"
	default:
		return "invalid"
	}
}

// Stepper is a hardening-physics variant. Implementations own only their
// per-variant parameters; trajectory storage belongs to the Evolution.
type Stepper interface {
	// Init runs after the generic step-zero initialization and may fill
	// any additional state the variant precomputes.
	Init(ev *Evolution) error

	// Advance integrates step (1-based within the loop) from step-1.
	Advance(ev *Evolution, step int) (Status, error)
}

// Modifier post-processes a finalized trajectory, with full read-write
// access. Modifiers run in order before the finite-value checks.
type Modifier func(ev *Evolution) error
