//go:build stm32h743

package main

import (
	"time"

	"gopwr/core"
	"gopwr/telemetry"
)

// Board policy, fixed at build time. The supply route must match how
// the board is actually wired; a wrong choice here bricks the part
// until power is removed.
const (
	bypassSupply = false // VCORE fed externally instead of the LDO
	useOverdrive = false
	sysClkPlanHz = 400000000 // what the clock tree will ask for

	traceCommit = false // phase trace shares the telemetry wire

	heartbeatPeriod = 5 * time.Second
)

func main() {
	initCycleCounter()
	uartInit()

	core.SetPMUDriver(h743PMU{})
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

	sel := core.NewSupplySelector().LDO()
	if bypassSupply {
		sel = sel.Bypass()
	}
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
	report := telemetry.NewCommitReport("stm32h743", sel, vos, bits, cycleCount())

	// The commit report doubles as a heartbeat; a host that attaches
	// late picks up board state from the next beat.
	for {
		if err := enc.EmitCommit(report); err != nil {
			uartPrintln("pwr: emit: " + err.Error())
		}
		time.Sleep(heartbeatPeriod)
	}
}
