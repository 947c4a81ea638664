// Package trace provides the run record of a process simulation: the per-element
// visit ledger and the human-readable step log.
// This package has no dependencies on sim/ and stores pure data types.
package trace

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ElementTrace is the ledger entry of one element: the attributes it was created
// with and the simulated time it was observed at each component it visited.
type ElementTrace struct {
	Attributes map[string]any     `json:"params"`
	Visits     map[string]float64 `json:"visits"`
}

// StepBucket holds the step-log lines written at one simulated instant,
// in insertion order.
type StepBucket struct {
	Time  float64  `json:"time"`
	Lines []string `json:"lines"`
}

// Record is the append-only audit trail of a run.
// Thread-safety: NOT thread-safe. Written only from the scheduler loop.
type Record struct {
	elements map[string]*ElementTrace
	steps    map[float64][]string
}

// NewRecord creates an empty Record ready for recording.
func NewRecord() *Record {
	return &Record{
		elements: make(map[string]*ElementTrace),
		steps:    make(map[float64][]string),
	}
}

// VisitKey builds the visit key "{componentID}-{componentType}".
func VisitKey(componentID, componentType string) string {
	return componentID + "-" + componentType
}

// RecordCreation opens the ledger entry of a newly created element and records
// its first visit at the creating component.
func (r *Record) RecordCreation(elementID string, attrs map[string]any, componentID, componentType string, t float64) {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	r.elements[elementID] = &ElementTrace{
		Attributes: copied,
		Visits:     map[string]float64{VisitKey(componentID, componentType): t},
	}
}

// RecordVisit records that the element was observed at a component at time t.
// Elements unknown to the record get an entry without attributes.
func (r *Record) RecordVisit(elementID, componentID, componentType string, t float64) {
	et, ok := r.elements[elementID]
	if !ok {
		et = &ElementTrace{Attributes: map[string]any{}, Visits: make(map[string]float64)}
		r.elements[elementID] = et
	}
	et.Visits[VisitKey(componentID, componentType)] = t
}

// Stepf appends a formatted line to the step log bucket of time t.
func (r *Record) Stepf(t float64, format string, args ...any) {
	r.steps[t] = append(r.steps[t], fmt.Sprintf(format, args...))
}

// Element returns the ledger entry of an element.
func (r *Record) Element(id string) (*ElementTrace, bool) {
	et, ok := r.elements[id]
	return et, ok
}

// Visit returns the time the element was observed at the given component.
func (r *Record) Visit(elementID, componentID, componentType string) (float64, bool) {
	et, ok := r.elements[elementID]
	if !ok {
		return 0, false
	}
	t, ok := et.Visits[VisitKey(componentID, componentType)]
	return t, ok
}

// Len returns the number of elements in the ledger.
func (r *Record) Len() int {
	return len(r.elements)
}

// ElementIDs returns the ids of all recorded elements, sorted.
func (r *Record) ElementIDs() []string {
	ids := make([]string, 0, len(r.elements))
	for id := range r.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StepsAt returns the step-log lines written at time t.
func (r *Record) StepsAt(t float64) []string {
	return r.steps[t]
}

// Steps returns the step log ordered by time.
func (r *Record) Steps() []StepBucket {
	times := make([]float64, 0, len(r.steps))
	for t := range r.steps {
		times = append(times, t)
	}
	sort.Float64s(times)
	buckets := make([]StepBucket, len(times))
	for i, t := range times {
		buckets[i] = StepBucket{Time: t, Lines: r.steps[t]}
	}
	return buckets
}

type recordJSON struct {
	Register map[string]*ElementTrace `json:"register"`
	Steps    []StepBucket             `json:"steps"`
}

// MarshalJSON encodes the record as {"register": {...}, "steps": [...]}.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{Register: r.elements, Steps: r.Steps()})
}

// UnmarshalJSON restores a record previously encoded with MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = *NewRecord()
	for id, et := range raw.Register {
		r.elements[id] = et
	}
	for _, b := range raw.Steps {
		r.steps[b.Time] = append(r.steps[b.Time], b.Lines...)
	}
	return nil
}
