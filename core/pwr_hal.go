package core

// SupplyBits is the decoded routing state of the write-once lower byte of
// PWR.CR3 in family-neutral form. Drivers translate it to and from their
// own register layout; single-core parts report the SMPS fields as zero.
type SupplyBits struct {
	Bypass      bool  // VCORE supplied externally (BYPASS)
	LDOEnabled  bool  // linear regulator enabled (LDOEN)
	SMPSEnabled bool  // step-down converter enabled (SDEN, dual-core only)
	SMPSExtHP   bool  // converter powers external loads (SDEXTHP, dual-core only)
	SMPSLevel   uint8 // converter output: 0 none, 1 = 1.8V, 2 = 2.5V (SDLEVEL)
}

// PMUDriver abstracts one power-management-unit family. The commit
// sequence in Freeze is written once against this interface; everything
// family-specific (register layout, lock bits, which capabilities exist)
// lives in the implementation. Targets register theirs with SetPMUDriver;
// tests register a simulated one.
type PMUDriver interface {
	// Family identifies the hardware family, e.g. "stm32h743".
	Family() string

	// SupportsSMPS reports whether the part has the integrated step-down
	// converter.
	SupportsSMPS() bool

	// SupportsOverdrive reports whether the silicon revision offers the
	// VOS0 operating point.
	SupportsOverdrive() bool

	// WriteSupply commits the routing bits to the write-once lower byte
	// of CR3. The hardware latches the first write until the next
	// power-on reset, so this is called at most once per power cycle.
	WriteSupply(bits SupplyBits)

	// ReadSupply decodes the routing bits currently latched in CR3.
	ReadSupply() SupplyBits

	// ActiveVOSReady reports CSR1.ACTVOSRDY: the regulator has left the
	// post-reset transitional state.
	ActiveVOSReady() bool

	// RequestScale writes the D3CR.VOS field for the given scale.
	RequestScale(scale VoltageScale)

	// ScaleReady reports D3CR.VOSRDY for the most recent scale request.
	ScaleReady() bool

	// EnableOverdrive enables the SYSCFG peripheral clock and sets the
	// overdrive enable bit. Completion is reported through ScaleReady.
	EnableOverdrive()
}

var pmuDriver PMUDriver

// SetPMUDriver registers the platform PMU implementation. Target main()
// must call this before TakePwr.
func SetPMUDriver(d PMUDriver) {
	pmuDriver = d
}

// MustPMU returns the registered PMU driver, panicking if none is set.
func MustPMU() PMUDriver {
	if pmuDriver == nil {
		panic("PMU driver not configured")
	}
	return pmuDriver
}
