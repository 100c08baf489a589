//go:build stm32h747

package main

import "errors"

// Bit-banged open-drain I2C on PB8 (SCL) and PB9 (SDA) for the rail
// sensor. The hardware I2C blocks sit in D2 and this firmware never
// brings that domain up, so the bus is driven by hand from GPIO.
const (
	pinSCL = 1 << 8
	pinSDA = 1 << 9

	// 100kHz at the 64MHz boot clock.
	i2cHalfPeriodCycles = 320

	// How long to honor clock stretching before giving up. A dead bus
	// then shows up as a NACK at the next byte boundary.
	i2cStretchBudget = 100000
)

var errI2CNack = errors.New("i2c: no acknowledge")

// softI2C implements the drivers.I2C interface over the two GPIO lines.
type softI2C struct{}

func newSoftI2C() *softI2C {
	v := regAHB4ENR.Get()
	regAHB4ENR.Set(v | ahb4GpioBEn)
	_ = regAHB4ENR.Get()

	// Both lines open drain with pull-ups, released high.
	v = regBODR.Get()
	regBODR.Set(v | pinSCL | pinSDA)
	v = regBOTYPER.Get()
	regBOTYPER.Set(v | pinSCL | pinSDA)
	v = regBPUPDR.Get()
	regBPUPDR.Set(v&^(0x3<<16|0x3<<18) | 0x1<<16 | 0x1<<18)
	v = regBMODER.Get()
	regBMODER.Set(v&^(0x3<<16|0x3<<18) | 0x1<<16 | 0x1<<18)

	return &softI2C{}
}

// Tx writes w to addr, then reads len(r) bytes back with a repeated
// start. Either slice may be empty.
func (b *softI2C) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	if len(w) > 0 {
		b.start()
		if !b.writeByte(uint8(addr << 1)) {
			b.stop()
			return errI2CNack
		}
		for _, c := range w {
			if !b.writeByte(c) {
				b.stop()
				return errI2CNack
			}
		}
	}
	if len(r) > 0 {
		b.start()
		if !b.writeByte(uint8(addr<<1 | 1)) {
			b.stop()
			return errI2CNack
		}
		for i := range r {
			r[i] = b.readByte(i < len(r)-1)
		}
	}
	b.stop()
	return nil
}

func (b *softI2C) delay() {
	start := cycleCount()
	for cycleCount()-start < i2cHalfPeriodCycles {
	}
}

func (b *softI2C) sdaSet(high bool) {
	v := regBODR.Get()
	if high {
		regBODR.Set(v | pinSDA)
	} else {
		regBODR.Set(v &^ pinSDA)
	}
}

func (b *softI2C) sdaRead() bool {
	return regBIDR.Get()&pinSDA != 0
}

func (b *softI2C) sclLow() {
	regBODR.Set(regBODR.Get() &^ pinSCL)
}

// sclRelease lets SCL float high and waits out slave clock stretching.
func (b *softI2C) sclRelease() {
	regBODR.Set(regBODR.Get() | pinSCL)
	for i := 0; i < i2cStretchBudget; i++ {
		if regBIDR.Get()&pinSCL != 0 {
			return
		}
	}
}

// start issues a start condition, or a repeated start when the bus is
// already claimed. SCL is left low.
func (b *softI2C) start() {
	b.sdaSet(true)
	b.delay()
	b.sclRelease()
	b.delay()
	b.sdaSet(false)
	b.delay()
	b.sclLow()
	b.delay()
}

func (b *softI2C) stop() {
	b.sdaSet(false)
	b.delay()
	b.sclRelease()
	b.delay()
	b.sdaSet(true)
	b.delay()
}

// writeByte shifts out one byte MSB first and reports the ACK bit.
func (b *softI2C) writeByte(c uint8) bool {
	for bit := 7; bit >= 0; bit-- {
		b.sdaSet(c&(1<<bit) != 0)
		b.delay()
		b.sclRelease()
		b.delay()
		b.sclLow()
	}

	// Release SDA and clock the acknowledge bit in; low means ACK.
	b.sdaSet(true)
	b.delay()
	b.sclRelease()
	b.delay()
	ack := !b.sdaRead()
	b.sclLow()
	b.delay()
	return ack
}

// readByte shifts in one byte MSB first and answers with ACK or NACK.
func (b *softI2C) readByte(ack bool) uint8 {
	var c uint8
	b.sdaSet(true)
	for bit := 7; bit >= 0; bit-- {
		b.delay()
		b.sclRelease()
		b.delay()
		if b.sdaRead() {
			c |= 1 << bit
		}
		b.sclLow()
	}

	b.sdaSet(!ack)
	b.delay()
	b.sclRelease()
	b.delay()
	b.sclLow()
	b.delay()
	b.sdaSet(true)
	return c
}
