package core

// VoltageScale is the operating point Freeze achieved. Only Freeze
// produces a usable value, so holding one proves the commit sequence ran
// to completion; the zero value is invalid and reports a zero clock
// ceiling. There is no further lifecycle: the value is a terminal marker
// consumed by clock configuration.
type VoltageScale struct {
	code uint8
}

// Internal scale codes. Zero is reserved so the zero value stays invalid.
const (
	scaleInvalid uint8 = iota
	scale3Code
	scale2Code
	scale1Code
	scale0Code
)

// Index returns the scale number: 0 for Scale0 (overdrive) through 3 for
// Scale3, or -1 for the zero value. Freeze only ever yields 0 or 1;
// scales 2 and 3 exist as pre-commit hardware states.
func (v VoltageScale) Index() int {
	switch v.code {
	case scale0Code:
		return 0
	case scale1Code:
		return 1
	case scale2Code:
		return 2
	case scale3Code:
		return 3
	}
	return -1
}

func (v VoltageScale) String() string {
	if idx := v.Index(); idx >= 0 {
		return "Scale" + utoa(uint32(idx))
	}
	return "unset"
}

// MaxSysClkHz returns the highest SYSCLK this scale supports on revision
// V silicon. Clock configuration must not program a higher frequency.
func (v VoltageScale) MaxSysClkHz() uint32 {
	switch v.code {
	case scale0Code:
		return VOS0MaxHz
	case scale1Code:
		return VOS1MaxHz
	case scale2Code:
		return VOS2MaxHz
	case scale3Code:
		return VOS3MaxHz
	}
	return 0
}

// VOSBits returns the D3CR.VOS encoding for this scale. VOS0 has no
// encoding of its own: the hardware reaches it by enabling overdrive on
// top of VOS1, so Scale0 reports the VOS1 bits.
func (v VoltageScale) VOSBits() uint8 {
	switch v.code {
	case scale3Code:
		return 0b01
	case scale2Code:
		return 0b10
	case scale1Code, scale0Code:
		return 0b11
	}
	return 0
}
