//go:build stm32h747

package main

// Telemetry UART: USART1 TX on PA9 (AF7), 115200 8N1. The link is one
// way; the host only listens.

// Boot clocks: HSI at 64MHz feeds rcc_pclk2, which is the USART1 kernel
// clock out of reset. Integer truncation of the divider is within 8N1
// tolerance.
const (
	uartKernelHz = 64000000
	uartBaud     = 115200
)

func uartInit() {
	v := regAHB4ENR.Get()
	regAHB4ENR.Set(v | ahb4GpioAEn)
	v = regAPB2ENR.Get()
	regAPB2ENR.Set(v | apb2Usart1En)
	_ = regAPB2ENR.Get()

	// PA9 to alternate function 7, high speed.
	v = regMODER.Get()
	regMODER.Set(v&^(0x3<<18) | 0x2<<18)
	v = regOSPEEDR.Get()
	regOSPEEDR.Set(v | 0x2<<18)
	v = regAFRH.Get()
	regAFRH.Set(v&^(0xF<<4) | 0x7<<4)

	// BRR is written before the enable bit; it is read-only once UE set.
	regUartBRR.Set(uartKernelHz / uartBaud)
	regUartCR1.Set(cr1TE | cr1UE)
}

func uartWriteByte(b byte) {
	for regUartISR.Get()&isrTXE == 0 {
	}
	regUartTDR.Set(uint32(b))
}

// uartWriter adapts the transmit register to io.Writer for the frame
// encoder.
type uartWriter struct{}

func (uartWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		uartWriteByte(b)
	}
	return len(p), nil
}

// uartPrintln carries trace lines. Framed records and trace text share
// the wire; the frame decoder resynchronizes past the text.
func uartPrintln(s string) {
	for i := 0; i < len(s); i++ {
		uartWriteByte(s[i])
	}
	uartWriteByte('\r')
	uartWriteByte('\n')
}
