//go:build stm32h743

package main

import "gopwr/core"

// cpuRevisionV gates overdrive. Revision Y silicon caps at VOS1; build
// for it by flipping this off.
const cpuRevisionV = true

// h743PMU drives the single-core PWR block. The part has no SMPS; the
// only routing choices are the internal LDO or external bypass.
type h743PMU struct{}

func (h743PMU) Family() string {
	return "stm32h743"
}

func (h743PMU) SupportsSMPS() bool {
	return false
}

func (h743PMU) SupportsOverdrive() bool {
	return cpuRevisionV
}

func (h743PMU) WriteSupply(b core.SupplyBits) {
	v := regCR3.Get()
	v &^= uint32(cr3Bypass | cr3LDOEn)
	if b.Bypass {
		v |= cr3Bypass
	}
	if b.LDOEnabled {
		v |= cr3LDOEn
	}
	// SCUEN rides along; hardware locks the routing bits once it drops.
	v |= cr3SCUEn
	regCR3.Set(v)
}

func (h743PMU) ReadSupply() core.SupplyBits {
	v := regCR3.Get()
	return core.SupplyBits{
		Bypass:     v&cr3Bypass != 0,
		LDOEnabled: v&cr3LDOEn != 0,
	}
}

func (h743PMU) ActiveVOSReady() bool {
	return regCSR1.Get()&csr1ActVOSRdy != 0
}

func (h743PMU) RequestScale(vos core.VoltageScale) {
	regD3CR.Set(uint32(vos.VOSBits()) << d3crVOSShift)
}

func (h743PMU) ScaleReady() bool {
	return regD3CR.Get()&d3crVOSRdy != 0
}

func (h743PMU) EnableOverdrive() {
	v := regAPB4ENR.Get()
	regAPB4ENR.Set(v | apb4SyscfgEn)
	// A peripheral clock enable takes two bus cycles to propagate; the
	// read-back spends them.
	_ = regAPB4ENR.Get()

	v = regPWRCR.Get()
	regPWRCR.Set(v&^0xF | pwrcrODEn)
}
