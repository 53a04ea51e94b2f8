package repair

import "fmt"

// DeclinedError is returned when the operator does not confirm.
type DeclinedError struct {
	Action Action
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("%s cancelled by operator", e.Action.Title())
}

// MissingDependencyError is returned when a tool the workflow needs is not
// installed.
type MissingDependencyError struct {
	Package string
	Doc     string
	Err     error
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("required package %s is not installed", e.Package)
	if e.Doc != "" {
		msg += ", see " + e.Doc
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Err
}

// MidRepairError marks a failure that leaves the host mid-repair. Services
// are deliberately left stopped so the operator can inspect the state.
type MidRepairError struct {
	Step string
	Err  error
}

func (e *MidRepairError) Error() string {
	return fmt.Sprintf("%s did not finish, services left stopped: %v", e.Step, e.Err)
}

func (e *MidRepairError) Unwrap() error {
	return e.Err
}
