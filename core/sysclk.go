package core

import "errors"

// SYSCLK ceilings per voltage scale for revision V silicon. Revision Y
// parts stop at 400MHz regardless; profiles gate that on the host side.
const (
	VOS0MaxHz uint32 = 480000000
	VOS1MaxHz uint32 = 400000000
	VOS2MaxHz uint32 = 300000000
	VOS3MaxHz uint32 = 200000000
)

var (
	ErrScaleUnset    = errors.New("voltage scale is unset; commit has not run")
	ErrSysClkTooFast = errors.New("requested SYSCLK exceeds the voltage scale ceiling")
)

// CheckSysClk validates a requested SYSCLK frequency against the ceiling
// of the achieved scale. Clock configuration calls this before
// programming the PLL; a rejected frequency means the supply selection
// and the clock plan disagree.
func CheckSysClk(vos VoltageScale, hz uint32) error {
	max := vos.MaxSysClkHz()
	if max == 0 {
		return ErrScaleUnset
	}
	if hz > max {
		return ErrSysClkTooFast
	}
	return nil
}
