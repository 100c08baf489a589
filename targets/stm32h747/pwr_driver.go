//go:build stm32h747

package main

import "gopwr/core"

// cpuRevisionV gates overdrive. Revision Y silicon caps at VOS1; build
// for it by flipping this off.
const cpuRevisionV = true

// h747PMU drives the dual-core PWR block, which carries both the LDO
// and the step-down converter.
type h747PMU struct{}

func (h747PMU) Family() string {
	return "stm32h747"
}

func (h747PMU) SupportsSMPS() bool {
	return true
}

func (h747PMU) SupportsOverdrive() bool {
	return cpuRevisionV
}

func (h747PMU) WriteSupply(b core.SupplyBits) {
	v := regCR3.Get()
	v &^= uint32(cr3Bypass | cr3LDOEn | cr3SDEn | cr3SDExtHP | cr3SDLevelMask)
	if b.Bypass {
		v |= cr3Bypass
	}
	if b.LDOEnabled {
		v |= cr3LDOEn
	}
	if b.SMPSEnabled {
		v |= cr3SDEn
	}
	if b.SMPSExtHP {
		v |= cr3SDExtHP
	}
	v |= uint32(b.SMPSLevel&0x3) << cr3SDLevelShift
	regCR3.Set(v)
}

func (h747PMU) ReadSupply() core.SupplyBits {
	v := regCR3.Get()
	return core.SupplyBits{
		Bypass:      v&cr3Bypass != 0,
		LDOEnabled:  v&cr3LDOEn != 0,
		SMPSEnabled: v&cr3SDEn != 0,
		SMPSExtHP:   v&cr3SDExtHP != 0,
		SMPSLevel:   uint8(v >> cr3SDLevelShift & 0x3),
	}
}

func (h747PMU) ActiveVOSReady() bool {
	return regCSR1.Get()&csr1ActVOSRdy != 0
}

func (h747PMU) RequestScale(vos core.VoltageScale) {
	regD3CR.Set(uint32(vos.VOSBits()) << d3crVOSShift)
}

func (h747PMU) ScaleReady() bool {
	return regD3CR.Get()&d3crVOSRdy != 0
}

func (h747PMU) EnableOverdrive() {
	v := regAPB4ENR.Get()
	regAPB4ENR.Set(v | apb4SyscfgEn)
	// A peripheral clock enable takes two bus cycles to propagate; the
	// read-back spends them.
	_ = regAPB4ENR.Get()

	v = regPWRCR.Get()
	regPWRCR.Set(v | pwrcrODEn)
}
