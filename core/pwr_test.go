package core

import (
	"sync/atomic"
	"testing"
)

// simPMU simulates the PWR block for sequencer tests. CR3 behaves like
// the hardware: the first WriteSupply latches and later writes are
// ignored. Ready bits can be armed to read clear a configured number of
// polls before they set. Every driver call is appended to ops so tests
// can check ordering.
type simPMU struct {
	family       string
	smps         bool
	overdrive    bool
	latched      SupplyBits
	latchLocked  bool
	domainDelay  uint32 // clear reads of ACTVOSRDY before it sets
	scaleDelay   uint32 // clear reads of VOSRDY after a scale request
	odDelay      uint32 // clear reads of VOSRDY after overdrive enable
	scalePending uint32
	vosWritten   uint8
	odEnabled    bool
	writes       int
	reads        int
	ops          []string
}

func newSimPMU() *simPMU {
	return &simPMU{family: "sim", smps: true, overdrive: true}
}

func (s *simPMU) Family() string          { return s.family }
func (s *simPMU) SupportsSMPS() bool      { return s.smps }
func (s *simPMU) SupportsOverdrive() bool { return s.overdrive }

func (s *simPMU) WriteSupply(bits SupplyBits) {
	s.ops = append(s.ops, "write")
	s.writes++
	if !s.latchLocked {
		s.latched = bits
		s.latchLocked = true
	}
}

func (s *simPMU) ReadSupply() SupplyBits {
	s.ops = append(s.ops, "read")
	s.reads++
	return s.latched
}

func (s *simPMU) ActiveVOSReady() bool {
	s.ops = append(s.ops, "actvos")
	if s.domainDelay > 0 {
		s.domainDelay--
		return false
	}
	return true
}

func (s *simPMU) RequestScale(scale VoltageScale) {
	s.ops = append(s.ops, "vos")
	s.vosWritten = scale.VOSBits()
	s.scalePending = s.scaleDelay
}

func (s *simPMU) ScaleReady() bool {
	s.ops = append(s.ops, "vosrdy")
	if s.scalePending > 0 {
		s.scalePending--
		return false
	}
	return true
}

func (s *simPMU) EnableOverdrive() {
	s.ops = append(s.ops, "oden")
	s.odEnabled = true
	s.scalePending = s.odDelay
}

// resetPwrState returns the package globals to their post-reset values
// so each test starts from a fresh power cycle.
func resetPwrState() {
	atomic.StoreUint32(&pwrTaken, 0)
	pollBudget = 0
	faultHandler = nil
	pmuDriver = nil
	tickSource = nil
	SetTraceEnabled(false)
	SetTraceWriter(func(string) {})
	ClearPhaseLog()
}

// expectFault runs fn expecting it to panic with a SupplyFault and
// returns the fault. It also checks the fault handler hook observed the
// same fault before the panic.
func expectFault(t *testing.T, fn func()) SupplyFault {
	t.Helper()

	var hooked SupplyFault
	hookRan := false
	SetFaultHandler(func(f SupplyFault) {
		hooked = f
		hookRan = true
	})

	var fault SupplyFault
	panicked := false
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			panicked = true
			f, ok := r.(SupplyFault)
			if !ok {
				t.Fatalf("panic value is %T, want SupplyFault: %v", r, r)
			}
			fault = f
		}()
		fn()
	}()

	if !panicked {
		t.Fatal("expected a supply fault, commit completed instead")
	}
	if !hookRan {
		t.Error("fault handler hook did not run before the panic")
	}
	if hooked != fault {
		t.Errorf("hook saw %+v, panic carried %+v", hooked, fault)
	}
	return fault
}

func TestRoutingPatternTable(t *testing.T) {
	// Expected CR3 patterns per RM0399 Rev 3 Table 32. Asserted as
	// literals, independent of the mapping table under test.
	cases := []struct {
		name     string
		strategy SupplyStrategy
		want     SupplyBits
	}{
		{"ldo", SupplyLDO, SupplyBits{LDOEnabled: true}},
		{"smps", SupplySMPS, SupplyBits{SMPSEnabled: true}},
		{"smps_1v8_feeds_ldo", SupplySMPS1V8FeedsLDO, SupplyBits{SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 1}},
		{"smps_2v5_feeds_ldo", SupplySMPS2V5FeedsLDO, SupplyBits{SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 2}},
		{"bypass", SupplyBypass, SupplyBits{Bypass: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetPwrState()
			sim := newSimPMU()
			SetPMUDriver(sim)

			pwr := TakePwr()
			if pwr == nil {
				t.Fatal("TakePwr returned nil on a fresh power cycle")
			}

			vos := pwr.Freeze(NewSupplySelector().WithStrategy(tc.strategy))
			if vos.Index() != 1 {
				t.Errorf("achieved %s, want Scale1", vos)
			}
			if sim.latched != tc.want {
				t.Errorf("latched %+v, want %+v", sim.latched, tc.want)
			}
			if sim.writes != 1 {
				t.Errorf("WriteSupply ran %d times, want exactly 1", sim.writes)
			}
		})
	}
}

func TestTakePwrIsOneShot(t *testing.T) {
	resetPwrState()
	SetPMUDriver(newSimPMU())

	if TakePwr() == nil {
		t.Fatal("first TakePwr returned nil")
	}
	if second := TakePwr(); second != nil {
		t.Error("second TakePwr returned a handle; the capability must be granted once")
	}
}

func TestFreezeConsumesHandle(t *testing.T) {
	resetPwrState()
	SetPMUDriver(newSimPMU())

	pwr := TakePwr()
	pwr.Freeze(NewSupplySelector().LDO())

	// A retained pointer is spent; reusing it must not reach hardware.
	defer func() {
		if r := recover(); r == nil {
			t.Error("Freeze on a consumed handle did not panic")
		}
	}()
	pwr.Freeze(NewSupplySelector().Bypass())
}

func TestDefaultWritesNothing(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	// A board whose reset default disagrees with anything we could
	// request: Default must not even look.
	sim.latched = SupplyBits{SMPSEnabled: true}
	sim.latchLocked = true
	SetPMUDriver(sim)

	vos := TakePwr().Freeze(NewSupplySelector())
	if vos.Index() != 1 {
		t.Errorf("achieved %s, want Scale1", vos)
	}
	if sim.writes != 0 {
		t.Errorf("Default wrote CR3 %d times, want 0", sim.writes)
	}
	if sim.reads != 0 {
		t.Errorf("Default verified CR3 %d times, want 0", sim.reads)
	}
}

func TestOverdriveDecidesScale(t *testing.T) {
	strategies := []SupplyStrategy{SupplyDefault, SupplyLDO, SupplySMPS, SupplyBypass}

	for _, strategy := range strategies {
		for _, od := range []bool{false, true} {
			resetPwrState()
			sim := newSimPMU()
			SetPMUDriver(sim)

			sel := NewSupplySelector().WithStrategy(strategy)
			if od {
				sel = sel.RequestOverdrive()
			}
			vos := TakePwr().Freeze(sel)

			want := 1
			if od {
				want = 0
			}
			if vos.Index() != want {
				t.Errorf("%s overdrive=%v: achieved %s, want Scale%d",
					strategy, od, vos, want)
			}
			// Scale2/Scale3 are pre-commit hardware states, never an
			// outcome.
			if vos.Index() > 1 {
				t.Errorf("%s overdrive=%v: commit yielded %s", strategy, od, vos)
			}
			if od != sim.odEnabled {
				t.Errorf("%s: overdrive enable bit = %v, want %v", strategy, sim.odEnabled, od)
			}
		}
	}
}

func TestVerifyMismatchFaults(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	// CR3 already latched the LDO pattern earlier this "power cycle".
	sim.latched = SupplyBits{LDOEnabled: true}
	sim.latchLocked = true
	SetPMUDriver(sim)

	pwr := TakePwr()
	fault := expectFault(t, func() {
		pwr.Freeze(NewSupplySelector().Bypass())
	})

	if fault.Kind != FaultMismatch {
		t.Errorf("fault kind %s, want mismatch", fault.Kind)
	}
	// BYPASS is the lowest CR3 bit that disagrees: wrote 1, read 0.
	if fault.Field != "PWR.CR3.BYPASS" {
		t.Errorf("fault names %q, want PWR.CR3.BYPASS", fault.Field)
	}
	if fault.Want != 1 || fault.Got != 0 {
		t.Errorf("fault wrote=%d read=%d, want wrote=1 read=0", fault.Want, fault.Got)
	}
	if fault.Strategy != SupplyBypass {
		t.Errorf("fault strategy %s, want bypass", fault.Strategy)
	}
	t.Logf("diagnostic: %s", fault.Error())
}

func TestVerifyNamesFirstDisagreeingField(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	// Board latched direct SMPS; firmware asks for SMPS feeding the LDO.
	// BYPASS and SDEN agree; LDOEN is the first field that differs.
	sim.latched = SupplyBits{SMPSEnabled: true}
	sim.latchLocked = true
	SetPMUDriver(sim)

	pwr := TakePwr()
	fault := expectFault(t, func() {
		pwr.Freeze(NewSupplySelector().SMPS1V8FeedsLDO())
	})

	if fault.Field != "PWR.CR3.LDOEN" {
		t.Errorf("fault names %q, want PWR.CR3.LDOEN", fault.Field)
	}
	if fault.Want != 1 || fault.Got != 0 {
		t.Errorf("fault wrote=%d read=%d, want wrote=1 read=0", fault.Want, fault.Got)
	}
}

func TestCapabilityFaults(t *testing.T) {
	t.Run("smps routing without converter", func(t *testing.T) {
		resetPwrState()
		sim := newSimPMU()
		sim.smps = false
		SetPMUDriver(sim)

		pwr := TakePwr()
		fault := expectFault(t, func() {
			pwr.Freeze(NewSupplySelector().DirectSMPS())
		})
		if fault.Kind != FaultCapability {
			t.Errorf("fault kind %s, want capability", fault.Kind)
		}
		if sim.writes != 0 {
			t.Errorf("CR3 written %d times before the capability fault, want 0", sim.writes)
		}
	})

	t.Run("overdrive without revision support", func(t *testing.T) {
		resetPwrState()
		sim := newSimPMU()
		sim.overdrive = false
		SetPMUDriver(sim)

		pwr := TakePwr()
		fault := expectFault(t, func() {
			pwr.Freeze(NewSupplySelector().LDO().RequestOverdrive())
		})
		if fault.Kind != FaultCapability {
			t.Errorf("fault kind %s, want capability", fault.Kind)
		}
		if fault.Field != "SYSCFG.PWRCR.ODEN" {
			t.Errorf("fault names %q, want SYSCFG.PWRCR.ODEN", fault.Field)
		}
		if sim.writes != 0 {
			t.Errorf("CR3 written %d times before the capability fault, want 0", sim.writes)
		}
	})

	t.Run("strategy value outside the published set", func(t *testing.T) {
		resetPwrState()
		sim := newSimPMU()
		SetPMUDriver(sim)

		pwr := TakePwr()
		fault := expectFault(t, func() {
			pwr.Freeze(NewSupplySelector().WithStrategy(SupplyStrategy(17)))
		})
		if fault.Kind != FaultCapability {
			t.Errorf("fault kind %s, want capability", fault.Kind)
		}
	})
}

func TestReadinessOrdering(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	sim.domainDelay = 3
	sim.scaleDelay = 2
	SetPMUDriver(sim)

	vos := TakePwr().Freeze(NewSupplySelector().LDO())
	if vos.Index() != 1 {
		t.Fatalf("achieved %s, want Scale1", vos)
	}

	// The full driver call sequence is deterministic: the latch and its
	// read-back, ACTVOSRDY polled until set, only then the scale request
	// and its own readiness polls.
	want := []string{
		"write", "read",
		"actvos", "actvos", "actvos", "actvos",
		"vos",
		"vosrdy", "vosrdy", "vosrdy",
	}
	if len(sim.ops) != len(want) {
		t.Fatalf("driver saw %d calls %v, want %d %v", len(sim.ops), sim.ops, len(want), want)
	}
	for i := range want {
		if sim.ops[i] != want[i] {
			t.Fatalf("call %d is %s, want %s (full: %v)", i, sim.ops[i], want[i], sim.ops)
		}
	}

	if got := PollsFor(PhaseDomainReady); got != 3 {
		t.Errorf("domain-ready polls recorded %d, want 3", got)
	}
	if got := PollsFor(PhaseScaleReady); got != 2 {
		t.Errorf("scale-ready polls recorded %d, want 2", got)
	}
}

func TestReadinessOrderingWithOverdrive(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	sim.domainDelay = 1
	sim.scaleDelay = 1
	sim.odDelay = 2
	SetPMUDriver(sim)

	vos := TakePwr().Freeze(NewSupplySelector().DirectSMPS().RequestOverdrive())
	if vos.Index() != 0 {
		t.Fatalf("achieved %s, want Scale0", vos)
	}

	want := []string{
		"write", "read",
		"actvos", "actvos",
		"vos",
		"vosrdy", "vosrdy",
		"oden",
		"vosrdy", "vosrdy", "vosrdy",
	}
	if len(sim.ops) != len(want) {
		t.Fatalf("driver saw %v, want %v", sim.ops, want)
	}
	for i := range want {
		if sim.ops[i] != want[i] {
			t.Fatalf("call %d is %s, want %s (full: %v)", i, sim.ops[i], want[i], sim.ops)
		}
	}
}

func TestEndToEndLDO(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	SetPMUDriver(sim)

	vos := TakePwr().Freeze(NewSupplySelector().LDO())

	if vos.Index() != 1 {
		t.Errorf("achieved %s, want Scale1", vos)
	}
	got := sim.latched
	if got.SMPSEnabled {
		t.Error("read-back shows the converter enabled; LDO routing must disable it")
	}
	if !got.LDOEnabled {
		t.Error("read-back shows the regulator disabled; LDO routing must enable it")
	}
	if sim.vosWritten != 0b11 {
		t.Errorf("VOS field written 0b%b, want 0b11 (VOS1)", sim.vosWritten)
	}
	if vos.MaxSysClkHz() != VOS1MaxHz {
		t.Errorf("Scale1 ceiling %d, want %d", vos.MaxSysClkHz(), VOS1MaxHz)
	}
}

func TestEndToEndSMPSOverdrive(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	SetPMUDriver(sim)

	vos := TakePwr().Freeze(NewSupplySelector().DirectSMPS().RequestOverdrive())

	if vos.Index() != 0 {
		t.Errorf("achieved %s, want Scale0", vos)
	}
	got := sim.latched
	if !got.SMPSEnabled {
		t.Error("read-back shows the converter disabled; direct SMPS must enable it")
	}
	if got.LDOEnabled {
		t.Error("read-back shows the regulator enabled; direct SMPS must disable it")
	}
	if !sim.odEnabled {
		t.Error("auxiliary overdrive enable bit never set")
	}
	if vos.MaxSysClkHz() != VOS0MaxHz {
		t.Errorf("Scale0 ceiling %d, want %d", vos.MaxSysClkHz(), VOS0MaxHz)
	}
}

func TestPhaseLogRecordsCommit(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	sim.domainDelay = 2
	SetPMUDriver(sim)

	TakePwr().Freeze(NewSupplySelector().LDO())

	wantPhases := []uint8{
		PhaseWrite, PhaseVerified, PhaseDomainReady,
		PhaseScaleRequested, PhaseScaleReady,
	}
	log := PhaseLog()
	if len(log) != len(wantPhases) {
		t.Fatalf("phase log has %d entries, want %d: %+v", len(log), len(wantPhases), log)
	}
	for i, evt := range log {
		if evt.Phase != wantPhases[i] {
			t.Errorf("phase %d is %s, want %s", i, phaseName(evt.Phase), phaseName(wantPhases[i]))
		}
	}
	if log[2].Polls != 2 {
		t.Errorf("domain-ready entry recorded %d polls, want 2", log[2].Polls)
	}
}

func TestTraceOutput(t *testing.T) {
	resetPwrState()
	sim := newSimPMU()
	SetPMUDriver(sim)

	var lines []string
	SetTraceWriter(func(s string) { lines = append(lines, s) })
	SetTraceEnabled(true)

	TakePwr().Freeze(NewSupplySelector().LDO())

	if len(lines) == 0 {
		t.Fatal("trace enabled but no lines emitted")
	}
	for _, line := range lines {
		t.Logf("trace: %s", line)
	}
}
