package core

import "sync/atomic"

// Pwr is the one-shot handle on the power management unit. TakePwr hands
// it out once per reset and Freeze consumes it, mirroring in software
// what the hardware enforces anyway: the lower byte of PWR.CR3 accepts a
// single write per power-on reset (RM0433 Rev 7 Section 6.8.4). With the
// handle spent there is no value left to commit with, so a second commit
// cannot be expressed through this API. Re-reading the hardware would
// only catch a mismatch from a previous power cycle, which is exactly
// what the verify phase does.
type Pwr struct {
	live bool
}

// pwrTaken is the take-once gate (atomic; 0 = available).
var pwrTaken uint32

// TakePwr acquires the power management unit handle. The first call
// returns the handle; every later call returns nil. In a multi-threaded
// system this is the single point that decides who may commit.
func TakePwr() *Pwr {
	if !atomic.CompareAndSwapUint32(&pwrTaken, 0, 1) {
		return nil
	}
	return &Pwr{live: true}
}

// Voltage scale values handed out by Freeze.
var (
	vosScale0 = VoltageScale{code: scale0Code}
	vosScale1 = VoltageScale{code: scale1Code}
)

// Freeze commits the selected supply configuration and drives the
// voltage scaling state to the high performance level. The phases run in
// fixed order:
//
//  1. write the routing bits to CR3 (skipped for SupplyDefault)
//  2. read CR3 back and verify it latched the committed pattern
//     (skipped for SupplyDefault)
//  3. wait for CSR1.ACTVOSRDY
//  4. request VOS1 and wait for D3CR.VOSRDY
//  5. if overdrive was requested, enable it and wait for VOSRDY again
//
// Freeze consumes the handle before touching hardware; calling it on a
// spent or nil handle panics. A verify mismatch faults: the bits were
// latched differently earlier this power cycle, or the board is wired
// for another topology, and only removing power clears them.
//
// Returns Scale0 when overdrive was requested, Scale1 otherwise.
func (p *Pwr) Freeze(sel SupplySelector) VoltageScale {
	if p == nil || !p.live {
		panic("PWR handle already consumed; supply configuration is committed until power-on reset")
	}
	p.live = false

	drv := MustPMU()
	strategy := sel.Strategy()
	bits := SupplyFor(strategy)

	// Strategies a build cannot name still fit in the uint8, so back the
	// static gating with a capability check before anything is written.
	if int(strategy) >= len(supplyRouting) {
		raiseFault(SupplyFault{Kind: FaultCapability, Field: "PWR.CR3", Strategy: strategy})
	}
	if bits.SMPSEnabled && !drv.SupportsSMPS() {
		raiseFault(SupplyFault{Kind: FaultCapability, Field: "PWR.CR3.SDEN", Strategy: strategy})
	}
	if sel.OverdriveRequested() && !drv.SupportsOverdrive() {
		raiseFault(SupplyFault{Kind: FaultCapability, Field: "SYSCFG.PWRCR.ODEN", Strategy: strategy})
	}

	if strategy != SupplyDefault {
		// The write and its verify form the commit point. Mask
		// interrupts across both so no handler can touch CR3 between
		// the latch and the read-back.
		state := disableInterrupts()
		drv.WriteSupply(bits)
		recordPhase(PhaseWrite, 0)
		got := drv.ReadSupply()
		restoreInterrupts(state)
		verifySupply(strategy, bits, got)
		recordPhase(PhaseVerified, 0)
	}

	// If this wait never completes, the voltages on the board do not
	// match the committed routing. The reset default is Scale3: the
	// VCAP pins should measure 1.0V.
	polls := waitReady(drv.ActiveVOSReady, "PWR.CSR1.ACTVOSRDY", strategy)
	recordPhase(PhaseDomainReady, polls)

	// Run mode reached (RM0433 Rev 7 Section 6.6.1). Request the high
	// performance scale.
	drv.RequestScale(vosScale1)
	recordPhase(PhaseScaleRequested, 0)
	polls = waitReady(drv.ScaleReady, "PWR.D3CR.VOSRDY", strategy)
	recordPhase(PhaseScaleReady, polls)

	if sel.OverdriveRequested() {
		// VOS0 rides on VOS1 with overdrive enabled; VOSRDY drops while
		// the rail climbs and sets again when it settles.
		drv.EnableOverdrive()
		polls = waitReady(drv.ScaleReady, "PWR.D3CR.VOSRDY", strategy)
		recordPhase(PhaseOverdrive, polls)
		return vosScale0
	}

	return vosScale1
}

// verifySupply compares the read-back against the committed pattern and
// faults on the first disagreeing field. The comparison covers exactly
// the fields the routing table can set, in register bit order, so the
// diagnostic names the lowest mismatching CR3 field.
func verifySupply(strategy SupplyStrategy, want, got SupplyBits) {
	checks := [...]struct {
		field string
		want  uint8
		got   uint8
	}{
		{"PWR.CR3.BYPASS", btou(want.Bypass), btou(got.Bypass)},
		{"PWR.CR3.LDOEN", btou(want.LDOEnabled), btou(got.LDOEnabled)},
		{"PWR.CR3.SDEN", btou(want.SMPSEnabled), btou(got.SMPSEnabled)},
		{"PWR.CR3.SDEXTHP", btou(want.SMPSExtHP), btou(got.SMPSExtHP)},
		{"PWR.CR3.SDLEVEL", want.SMPSLevel, got.SMPSLevel},
	}
	for _, c := range checks {
		if c.want != c.got {
			raiseFault(SupplyFault{
				Kind:     FaultMismatch,
				Field:    c.field,
				Strategy: strategy,
				Want:     c.want,
				Got:      c.got,
			})
		}
	}
}

func btou(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
