package sim

import (
	"fmt"

	"github.com/procsim/procsim/sim/process"
)

// TerminationTime is the only termination type tag the kernel recognizes.
const TerminationTime = "tiempo"

// Termination stops a run when any configured limit holds. It is checked
// before each event pop.
type Termination struct {
	Type         string  `yaml:"type" json:"type"`                                    // "tiempo" or empty
	Value        float64 `yaml:"valor" json:"valor" validate:"gte=0"`                 // time limit, active when Type is "tiempo" or Value > 0
	MaxGenerated int     `yaml:"max_generated" json:"max_generated" validate:"gte=0"` // total elements created by generators (0 = no limit)
	MaxOutput    int     `yaml:"max_output" json:"max_output" validate:"gte=0"`       // total elements held by outputs (0 = no limit)
}

// UntilTime returns a time-limited termination condition.
func UntilTime(t float64) Termination {
	return Termination{Type: TerminationTime, Value: t}
}

func (t Termination) hasTimeLimit() bool {
	return t.Type == TerminationTime || t.Value > 0
}

// Validate rejects unknown types and conditions that can never stop a run.
// Sensors reschedule forever, so a run without any limit would not end.
func (t Termination) Validate() error {
	if err := process.ValidateStruct(t); err != nil {
		return fmt.Errorf("termination: %w", err)
	}
	if t.Type != "" && t.Type != TerminationTime {
		return fmt.Errorf("termination: unknown type %q (valid: %s)", t.Type, TerminationTime)
	}
	if !t.hasTimeLimit() && t.MaxGenerated == 0 && t.MaxOutput == 0 {
		return fmt.Errorf("termination: at least one of valor, max_generated or max_output must be set")
	}
	return nil
}

// Reached reports whether the run should stop.
func (t Termination) Reached(clock float64, generated, output int) bool {
	if t.hasTimeLimit() && clock >= t.Value {
		return true
	}
	if t.MaxGenerated > 0 && generated >= t.MaxGenerated {
		return true
	}
	if t.MaxOutput > 0 && output >= t.MaxOutput {
		return true
	}
	return false
}

// Beyond reports whether an event at ts falls past the time limit.
func (t Termination) Beyond(ts float64) bool {
	return t.hasTimeLimit() && ts > t.Value
}

// Config groups everything NewSimulator needs.
type Config struct {
	Definition  *process.Definition
	Termination Termination
	Seed        int64
	Metrics     *RunMetrics // optional
}
