package core

// TraceWriter is a function type for writing commit trace lines
type TraceWriter func(string)

// PhaseEvent captures one commit phase transition for post-mortem
// analysis. The ring survives a fault panic, so a target's panic handler
// (or a debugger) can read how far the sequence got.
type PhaseEvent struct {
	Phase uint8  // phase code
	Polls uint32 // readiness polls spent reaching the phase
	Ticks uint32 // tick source value when recorded
}

// Phase codes, in commit order.
const (
	PhaseWrite          = 1 // routing bits written to CR3
	PhaseVerified       = 2 // read-back matched the committed pattern
	PhaseDomainReady    = 3 // CSR1.ACTVOSRDY observed set
	PhaseScaleRequested = 4 // D3CR.VOS written
	PhaseScaleReady     = 5 // D3CR.VOSRDY observed set
	PhaseOverdrive      = 6 // SYSCFG.PWRCR.ODEN set, VOSRDY re-observed
	PhaseFault          = 7 // fault raised
)

const phaseRingSize = 16

var (
	// tracePrint is the global trace output function (set by platform code)
	tracePrint TraceWriter = func(s string) {} // No-op by default

	// traceEnabled controls whether trace lines are emitted. The phase
	// ring records regardless.
	traceEnabled bool

	// tickSource reads a free-running counter for phase timestamps.
	// Platforms point it at a cycle counter; zero ticks when unset.
	tickSource func() uint32

	phaseRing     [phaseRingSize]PhaseEvent
	phaseRingHead uint8
)

// SetTraceWriter sets the platform-specific trace output function.
// Targets redirect it to the telemetry UART; tests capture it.
func SetTraceWriter(w TraceWriter) {
	tracePrint = w
}

// SetTraceEnabled enables or disables trace line output.
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// SetTickSource installs the counter read for phase timestamps.
func SetTickSource(f func() uint32) {
	tickSource = f
}

func nowTicks() uint32 {
	if tickSource == nil {
		return 0
	}
	return tickSource()
}

func phaseName(phase uint8) string {
	switch phase {
	case PhaseWrite:
		return "write"
	case PhaseVerified:
		return "verified"
	case PhaseDomainReady:
		return "domain_ready"
	case PhaseScaleRequested:
		return "scale_requested"
	case PhaseScaleReady:
		return "scale_ready"
	case PhaseOverdrive:
		return "overdrive"
	case PhaseFault:
		return "fault"
	}
	return "unknown"
}

// recordPhase appends to the ring and, when enabled, emits a trace line.
func recordPhase(phase uint8, polls uint32) {
	idx := phaseRingHead
	phaseRing[idx] = PhaseEvent{Phase: phase, Polls: polls, Ticks: nowTicks()}
	phaseRingHead = (idx + 1) % phaseRingSize

	if traceEnabled {
		tracePrintln("pwr: " + phaseName(phase) + " polls=" + utoa(polls))
	}
}

func tracePrintln(msg string) {
	if tracePrint != nil {
		tracePrint(msg)
	}
}

// PhaseLog returns the recorded phase events oldest first. Targets use
// it to fill the commit report; tests use it to check ordering.
func PhaseLog() []PhaseEvent {
	out := make([]PhaseEvent, 0, phaseRingSize)
	start := phaseRingHead
	for i := uint8(0); i < phaseRingSize; i++ {
		idx := (start + i) % phaseRingSize
		if phaseRing[idx].Phase == 0 {
			continue // empty slot
		}
		out = append(out, phaseRing[idx])
	}
	return out
}

// PollsFor returns the poll count recorded for a phase, or 0 if the
// phase never ran.
func PollsFor(phase uint8) uint32 {
	for _, evt := range PhaseLog() {
		if evt.Phase == phase {
			return evt.Polls
		}
	}
	return 0
}

// ClearPhaseLog empties the ring.
func ClearPhaseLog() {
	for i := range phaseRing {
		phaseRing[i] = PhaseEvent{}
	}
	phaseRingHead = 0
}
