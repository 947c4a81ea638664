package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/process"
)

// ErrNotFound is returned when no simulation has the requested id.
var ErrNotFound = errors.New("simulation not found")

// Simulation is one stored run.
type Simulation struct {
	ID         string          `json:"id"`
	ProcessID  string          `json:"process_id"`
	ProcessDef json.RawMessage `json:"process_def"`
	Duration   float64         `json:"duration"`
	Results    json.RawMessage `json:"results"`
	Stats      json.RawMessage `json:"stats"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Summary is the listing view of a stored run, without the heavy blobs.
type Summary struct {
	ID        string    `json:"id"`
	ProcessID string    `json:"process_id"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSimulation packs a completed run for storage. The process id defaults
// to the one carried by the definition's nodes.
func NewSimulation(processID string, def *process.Definition, res *sim.Result) (*Simulation, error) {
	if def == nil || res == nil {
		return nil, errors.New("definition and result are required")
	}
	if processID == "" {
		processID = def.ProcessID()
	}
	defJSON, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encoding process definition: %w", err)
	}
	results, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding results: %w", err)
	}
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return nil, fmt.Errorf("encoding stats: %w", err)
	}
	return &Simulation{
		ProcessID:  processID,
		ProcessDef: defJSON,
		Duration:   res.Clock,
		Results:    results,
		Stats:      stats,
	}, nil
}

// DecodeStats unmarshals the stored summary stats.
func (s *Simulation) DecodeStats() (sim.Stats, error) {
	var st sim.Stats
	if err := json.Unmarshal(s.Stats, &st); err != nil {
		return sim.Stats{}, fmt.Errorf("decoding stats: %w", err)
	}
	return st, nil
}
