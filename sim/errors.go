package sim

import "fmt"

// RunError reports a run aborted by an unexpected failure inside an event.
// No result is produced for such a run.
type RunError struct {
	Time  float64
	Event string
	Cause error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("simulation aborted at t=%g during %s: %v", e.Time, e.Event, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }

func panicCause(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
