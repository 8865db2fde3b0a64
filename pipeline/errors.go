package pipeline

import "fmt"

// MissingStateError is returned when derived state has not been written yet.
// It means there is no data so far rather than a failure.
type MissingStateError struct {
	What string
}

func (e *MissingStateError) Error() string {
	return fmt.Sprintf("no %s has been written yet", e.What)
}

// LockedError is returned when another run of the same pipeline holds its lock.
type LockedError struct {
	Pipeline string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("a %s run is already in progress", e.Pipeline)
}
