package domain

import (
	"fmt"
	"strings"
)

// Call is a binary forecast category for one instance.
type Call int

const (
	CallBelow Call = iota
	CallAbove
)

func (c Call) String() string {
	if c == CallAbove {
		return "above"
	}
	return "below"
}

// ParseCall accepts "above"/"an"/"1" and "below"/"bn"/"0".
func ParseCall(s string) (Call, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", "an", "1":
		return CallAbove, nil
	case "below", "bn", "0":
		return CallBelow, nil
	default:
		return 0, fmt.Errorf("unknown forecast call %q", s)
	}
}

// Outcome is the observed three-way category of an instance.
type Outcome int

const (
	OutcomeNear Outcome = iota
	OutcomeBelow
	OutcomeAbove
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBelow:
		return "below"
	case OutcomeAbove:
		return "above"
	default:
		return "near"
	}
}

// ParseOutcome accepts "below"/"bn", "near"/"nn" and "above"/"an".
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", "an":
		return OutcomeAbove, nil
	case "below", "bn":
		return OutcomeBelow, nil
	case "near", "nn", "normal":
		return OutcomeNear, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Hit reports whether a call verifies against an outcome. Near-normal outcomes
// verify every call.
func (c Call) Hit(o Outcome) bool {
	switch o {
	case OutcomeAbove:
		return c == CallAbove
	case OutcomeBelow:
		return c == CallBelow
	default:
		return true
	}
}

// FieldForecast holds the calls for one field aligned with the evaluation
// instances. Outcomes is nil when ground truth was not supplied.
type FieldForecast struct {
	Calls    []Call
	Outcomes []Outcome
}

// ForecastSet maps each scored field to its aligned forecast.
type ForecastSet map[Field]FieldForecast
