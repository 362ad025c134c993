package invocation

import "fmt"

// Outcome classifies a Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeNotImplemented
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotImplemented:
		return "not_implemented"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome converts a wire name back into an Outcome.
func ParseOutcome(value string) (Outcome, error) {
	switch value {
	case "success":
		return OutcomeSuccess, nil
	case "not_implemented":
		return OutcomeNotImplemented, nil
	case "failure":
		return OutcomeFailure, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", value)
	}
}

// Result is the single answer to an Invocation.
type Result struct {
	Outcome Outcome
	Value   any
	Reason  string
}

func Success(value any) Result {
	return Result{Outcome: OutcomeSuccess, Value: value}
}

func NotImplemented() Result {
	return Result{Outcome: OutcomeNotImplemented}
}

func Failure(reason string) Result {
	return Result{Outcome: OutcomeFailure, Reason: reason}
}

const (
	reasonNotBound        = "channel not bound"
	reasonInvalidArgs     = "invalid arguments"
	reasonNotGranted      = "capability not granted"
	reasonDispatcherClose = "dispatcher closed"
)
