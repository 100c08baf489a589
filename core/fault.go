package core

// FaultKind classifies the unrecoverable commit failures.
type FaultKind uint8

const (
	// FaultMismatch: the routing bits read back from CR3 differ from the
	// committed pattern. The lower byte of CR3 latches its first write
	// until the next power-on reset, so a mismatch means the bits were
	// already set this power cycle, or the board is wired for a
	// different topology than the software selected.
	FaultMismatch FaultKind = iota + 1

	// FaultCapability: the selection needs hardware this family or
	// silicon revision does not have (SMPS routing, the VOS0 operating
	// point) or carries a strategy value outside the published set.
	FaultCapability

	// FaultTimeout: a readiness poll exhausted the installed budget.
	// Only raised when SetPollBudget bounded the wait.
	FaultTimeout
)

func (k FaultKind) String() string {
	switch k {
	case FaultMismatch:
		return "mismatch"
	case FaultCapability:
		return "capability"
	case FaultTimeout:
		return "timeout"
	}
	return "unknown"
}

// SupplyFault describes why the commit cannot continue. There is no
// recovery path and no retry: the write-once bits stay latched until
// power is removed from the board, and running logic on an unverified
// VCORE risks silent corruption.
type SupplyFault struct {
	Kind     FaultKind
	Field    string // register field that disagreed or timed out
	Strategy SupplyStrategy
	Want     uint8 // committed value of Field (mismatch only)
	Got      uint8 // value read back (mismatch only)
}

// Error builds the diagnostic without fmt so it stays available on
// device builds.
func (f SupplyFault) Error() string {
	msg := "supply fault (" + f.Kind.String() + "): " + f.Field +
		" with strategy " + f.Strategy.String()
	switch f.Kind {
	case FaultMismatch:
		msg += ": wrote " + utoa(uint32(f.Want)) + ", read " + utoa(uint32(f.Got)) +
			"; the lower byte of PWR.CR3 latches once per power-on reset, remove power to clear it"
	case FaultCapability:
		msg += ": not available on this part"
	case FaultTimeout:
		msg += ": ready bit never set within the poll budget"
	}
	return msg
}

// faultHandler runs before the panic. Targets use it to push a fault
// record out the telemetry link or to arm a watchdog reset; tests use it
// to observe the fault.
var faultHandler func(SupplyFault)

// SetFaultHandler installs a hook that observes a fault before the panic.
// The panic always follows: execution must not continue on an unverified
// supply configuration.
func SetFaultHandler(h func(SupplyFault)) {
	faultHandler = h
}

// raiseFault reports the fault and halts. Never returns.
func raiseFault(f SupplyFault) {
	recordPhase(PhaseFault, 0)
	tracePrintln("pwr: " + f.Error())
	if faultHandler != nil {
		faultHandler(f)
	}
	panic(f)
}
