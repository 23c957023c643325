package entity

type NavigationOutcome int

const (
	OutcomeAdvance NavigationOutcome = iota
	OutcomeSubmit
	OutcomeComplete
	OutcomeStuck
)

func (o NavigationOutcome) String() string {
	switch o {
	case OutcomeAdvance:
		return "advance"
	case OutcomeSubmit:
		return "submit"
	case OutcomeComplete:
		return "complete"
	case OutcomeStuck:
		return "stuck"
	}
	return "invalid"
}

func (o NavigationOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type NavigationState int

const (
	StateAwaitingAction NavigationState = iota
	StateAdvancing
	StateSubmitting
	StateCompleted
	StateStuck
)

func (s NavigationState) String() string {
	switch s {
	case StateAwaitingAction:
		return "awaiting_action"
	case StateAdvancing:
		return "advancing"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateStuck:
		return "stuck"
	}
	return "invalid"
}
