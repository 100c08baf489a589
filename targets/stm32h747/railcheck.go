//go:build stm32h747

package main

import (
	"gopwr/telemetry"

	"tinygo.org/x/drivers/ina260"
)

// railMonitor samples VDD through an INA260 hanging off the soft I2C
// bus. The sensor's power-on defaults already run continuous 1.1ms
// conversions, which is plenty for rail sanity numbers, so it is used
// unconfigured.
type railMonitor struct {
	sensor ina260.Device
	ok     bool
}

func newRailMonitor() *railMonitor {
	bus := newSoftI2C()
	m := &railMonitor{sensor: ina260.New(bus)}
	m.ok = m.sensor.Connected()
	if !m.ok {
		uartPrintln("pwr: ina260 absent, rail monitor off")
	}
	return m
}

// emit frames one sample. A sensor that dropped off the bus reads as
// zeros; the host flags those against the profile tolerances.
func (m *railMonitor) emit(enc *telemetry.Encoder) {
	if !m.ok {
		return
	}
	s := telemetry.RailSample{
		Rail:       "vdd",
		Microvolts: m.sensor.Voltage(),
		Microamps:  m.sensor.Current(),
		Microwatts: m.sensor.Power(),
		Ticks:      cycleCount(),
	}
	if err := enc.EmitRail(s); err != nil {
		uartPrintln("pwr: emit: " + err.Error())
	}
}
