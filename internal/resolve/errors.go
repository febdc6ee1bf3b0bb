package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrBlankName is returned for a form row that has data but no ingredient name.
	ErrBlankName = errors.New("ingredient name is required")
	// ErrInconsistent marks a server response that does not cover what was sent.
	ErrInconsistent = errors.New("inconsistent api response")
	// ErrBlankMealName is returned when a new meal has no name.
	ErrBlankMealName = errors.New("meal name is required")
)

// Step identifies one remote write of a multi-step sequence.
type Step int

const (
	StepCreateMeal Step = iota
	StepCreateIngredients
	StepAssociate
	StepAttachMenu
)

func (s Step) String() string {
	switch s {
	case StepCreateMeal:
		return "create meal"
	case StepCreateIngredients:
		return "create ingredients"
	case StepAssociate:
		return "associate ingredients"
	case StepAttachMenu:
		return "attach to menu"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// StepError reports which write of a sequence failed. Earlier steps are not rolled back.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FailedStep returns the step carried by err.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return 0, false
}
