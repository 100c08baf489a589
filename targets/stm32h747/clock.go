//go:build stm32h747

package main

// The DWT cycle counter timestamps phase events and telemetry records.
// It counts CPU cycles, 64MHz at boot, and wraps in about 67 seconds;
// consumers treat it as a free-running uint32.

func initCycleCounter() {
	// TRCENA powers the DWT block.
	v := regDEMCR.Get()
	regDEMCR.Set(v | 1<<24)
	regDwtCYCCNT.Set(0)
	v = regDwtCTRL.Get()
	regDwtCTRL.Set(v | 1<<0)
}

func cycleCount() uint32 {
	return regDwtCYCCNT.Get()
}
