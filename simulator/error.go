package simulator

import "fmt"

// Aggregates the errors that ocurred during an exploration
type simulationError struct {
	errorSlice []error
}

func (se simulationError) Error() string {
	return fmt.Sprintf("Simulator: %v Errors occurred running rollouts. \nError 1: %v", len(se.errorSlice), se.errorSlice[0])
}

func (se simulationError) Unwrap() []error {
	return se.errorSlice
}
