//go:build stm32h743

package main

import (
	"runtime/volatile"
	"unsafe"
)

// STM32H743 peripheral memory map, D3 domain unless noted.
const (
	pwrBase = 0x58024800
	pwrCSR1 = pwrBase + 0x04 // status, ACTVOSRDY
	pwrCR3  = pwrBase + 0x0C // supply routing, write-once after POR
	pwrD3CR = pwrBase + 0x18 // VOS select and VOSRDY

	rccBase    = 0x58024400
	rccAHB4ENR = rccBase + 0xE0 // GPIO clocks
	rccAPB2ENR = rccBase + 0xF0 // USART1 clock
	rccAPB4ENR = rccBase + 0xF4 // SYSCFG clock

	syscfgBase  = 0x58000400
	syscfgPWRCR = syscfgBase + 0x2C // overdrive enable

	gpioaBase    = 0x58020000
	gpioaMODER   = gpioaBase + 0x00
	gpioaOSPEEDR = gpioaBase + 0x08
	gpioaAFRH    = gpioaBase + 0x24

	usart1Base = 0x40011000
	usart1CR1  = usart1Base + 0x00
	usart1BRR  = usart1Base + 0x0C
	usart1ISR  = usart1Base + 0x1C
	usart1TDR  = usart1Base + 0x28

	// Cortex-M7 debug block, for the cycle counter.
	dwtCTRL   = 0xE0001000
	dwtCYCCNT = 0xE0001004
	scbDEMCR  = 0xE000EDFC
)

// PWR.CR3 single-core layout. SCUEN must be written together with the
// routing bits; clearing it locks the register until power-on reset.
const (
	cr3Bypass = 1 << 0
	cr3LDOEn  = 1 << 1
	cr3SCUEn  = 1 << 2
)

const (
	csr1ActVOSRdy = 1 << 13
	d3crVOSRdy    = 1 << 13
	d3crVOSShift  = 14
	d3crVOSMask   = 0x3 << d3crVOSShift
)

const (
	apb4SyscfgEn = 1 << 1
	apb2Usart1En = 1 << 4
	ahb4GpioAEn  = 1 << 0

	// SYSCFG.PWRCR.ODEN is a four bit field on this part; the reference
	// sequence writes 1 to it.
	pwrcrODEn = 0x1
)

const (
	cr1UE = 1 << 0
	cr1TE = 1 << 3

	isrTXE = 1 << 7
)

var (
	regCSR1 = (*volatile.Register32)(unsafe.Pointer(uintptr(pwrCSR1)))
	regCR3  = (*volatile.Register32)(unsafe.Pointer(uintptr(pwrCR3)))
	regD3CR = (*volatile.Register32)(unsafe.Pointer(uintptr(pwrD3CR)))

	regAHB4ENR = (*volatile.Register32)(unsafe.Pointer(uintptr(rccAHB4ENR)))
	regAPB2ENR = (*volatile.Register32)(unsafe.Pointer(uintptr(rccAPB2ENR)))
	regAPB4ENR = (*volatile.Register32)(unsafe.Pointer(uintptr(rccAPB4ENR)))

	regPWRCR = (*volatile.Register32)(unsafe.Pointer(uintptr(syscfgPWRCR)))

	regMODER   = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioaMODER)))
	regOSPEEDR = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioaOSPEEDR)))
	regAFRH    = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioaAFRH)))

	regUartCR1 = (*volatile.Register32)(unsafe.Pointer(uintptr(usart1CR1)))
	regUartBRR = (*volatile.Register32)(unsafe.Pointer(uintptr(usart1BRR)))
	regUartISR = (*volatile.Register32)(unsafe.Pointer(uintptr(usart1ISR)))
	regUartTDR = (*volatile.Register32)(unsafe.Pointer(uintptr(usart1TDR)))

	regDwtCTRL   = (*volatile.Register32)(unsafe.Pointer(uintptr(dwtCTRL)))
	regDwtCYCCNT = (*volatile.Register32)(unsafe.Pointer(uintptr(dwtCYCCNT)))
	regDEMCR     = (*volatile.Register32)(unsafe.Pointer(uintptr(scbDEMCR)))
)
