//go:build stm32h747

package main

import (
	"time"

	"gopwr/core"
	"gopwr/telemetry"
)

// Board policy, fixed at build time. The supply route must match how
// the board is actually wired; a wrong choice here bricks the part
// until power is removed. This build targets an SMPS-direct board in
// the Nucleo-H747 wiring.
const (
	useOverdrive = true
	sysClkPlanHz = 480000000 // what the clock tree will ask for

	traceCommit = false // phase trace shares the telemetry wire

	railPeriod     = time.Second
	heartbeatEvery = 5 // rail periods between commit re-emits
)

func main() {
	initCycleCounter()
	uartInit()

	core.SetPMUDriver(h747PMU{})
	core.SetTickSource(cycleCount)
	core.SetTraceWriter(uartPrintln)
	core.SetTraceEnabled(traceCommit)

	enc := telemetry.NewEncoder(uartWriter{})

	// A fault report goes out before the panic halts us, so the host
	// learns why the board went quiet.
	core.SetFaultHandler(func(f core.SupplyFault) {
		enc.EmitFault(telemetry.NewFaultReport(f, cycleCount()))
	})

	pwr := core.TakePwr()
	if pwr == nil {
		uartPrintln("pwr: handle already taken")
		for {
		}
	}

	sel := core.NewSupplySelector().DirectSMPS()
	if useOverdrive {
		sel = sel.RequestOverdrive()
	}

	vos := pwr.Freeze(sel)

	// Guard the planned system clock against the granted scale before
	// any PLL code runs.
	if err := core.CheckSysClk(vos, sysClkPlanHz); err != nil {
		uartPrintln("pwr: " + err.Error())
		for {
		}
	}

	bits := core.SupplyFor(sel.Strategy())
	report := telemetry.NewCommitReport("stm32h747", sel, vos, bits, cycleCount())

	rails := newRailMonitor()

	// Single loop owns the wire: rail samples every period, the commit
	// report re-emitted as a heartbeat so late hosts pick up state.
	beat := 0
	for {
		if beat == 0 {
			if err := enc.EmitCommit(report); err != nil {
				uartPrintln("pwr: emit: " + err.Error())
			}
		}
		beat = (beat + 1) % heartbeatEvery
		rails.emit(enc)
		time.Sleep(railPeriod)
	}
}
