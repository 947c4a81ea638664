// Package sim provides the discrete-event kernel for process-network
// simulation.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - simulator.go: the clock, the pop-execute loop and termination
//   - event.go: event payloads and how each dispatches to its component
//   - component.go: state shared by all variants, including the failure model
//
// # Components
//
// A process definition (sim/process) declares nodes of six kinds. Each kind
// is a struct embedding Base and implementing a subset of the capability
// interfaces in capability.go:
//   - Generator: Source, Activity (on demand or self-paced)
//   - Queue: Receiver, Source (FIFO, LIFO, RANDOM, PRIORIDAD; all-or-nothing requests)
//   - Selector: Source, Listener (prioridad or orden over upstream ports)
//   - Transformer: Receiver, Listener, Counter, Activity (recipe-driven jobs)
//   - Transporter: Receiver, Listener, Counter, Activity (continuo or movil)
//   - Output: Receiver, Counter
//
// The Graph resolves each edge's peer capabilities once, at construction.
//
// # Randomness
//
// Every component samples from its own seeded stream (ComponentStreams), so a run
// is reproducible from its seed alone. Distribution descriptors and the
// sampler live in sim/dist; the run record lives in sim/trace.
package sim
