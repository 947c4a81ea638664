package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. The same key and process
// definition replay the same record.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// ComponentStreams hands out one random stream per component, seeded from
// the run key mixed with an FNV-1a hash of the component id. A node's draws
// do not depend on which other nodes exist or how often they sample.
//
// Not safe for concurrent use; the event loop is single-threaded.
type ComponentStreams struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewComponentStreams creates the stream set for a run.
func NewComponentStreams(key SimulationKey) *ComponentStreams {
	return &ComponentStreams{key: key, streams: make(map[string]*rand.Rand)}
}

// For returns the stream of component id, creating it on first use.
func (s *ComponentStreams) For(id string) *rand.Rand {
	r, ok := s.streams[id]
	if !ok {
		r = rand.New(rand.NewSource(s.seedFor(id)))
		s.streams[id] = r
	}
	return r
}

// Key returns the run key the streams derive from.
func (s *ComponentStreams) Key() SimulationKey { return s.key }

func (s *ComponentStreams) seedFor(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("component_" + id))
	return int64(s.key) ^ int64(h.Sum64())
}
