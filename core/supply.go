package core

// SupplyStrategy selects the physical path that supplies the VCORE power
// domains. The numeric values are stable: they travel in telemetry records
// and must not be reordered.
//
// Which strategies a part can route depends on the family: only dual-core
// packages carry the integrated step-down converter, so the SMPS strategies
// live in supply_smps.go and are compiled for those targets (and for host
// builds, which need every name for decoding and display).
type SupplyStrategy uint8

const (
	// SupplyDefault leaves the reset configuration of PWR.CR3 in place.
	// The reset value differs between packages (RM0399 Rev 3 Section 7.8.4),
	// so this strategy is never written and never verified.
	SupplyDefault SupplyStrategy = 0

	// SupplyLDO supplies the VCORE domains from the internal linear
	// regulator. The regulator output follows the VOS setting.
	SupplyLDO SupplyStrategy = 1

	// SupplyBypass disables the power management unit entirely; VCORE must
	// come from an external source.
	SupplyBypass SupplyStrategy = 5
)

// Strategy values 2 through 4 are the SMPS routings, declared in
// supply_smps.go.

var strategyNames = [6]string{
	"default",
	"ldo",
	"smps",
	"smps_1v8_feeds_ldo",
	"smps_2v5_feeds_ldo",
	"bypass",
}

// String returns the strategy's wire name.
func (s SupplyStrategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown(" + utoa(uint32(s)) + ")"
}

// StrategyFromName maps a wire name back to its strategy value. Used by
// host-side profile parsing; the reported value may name a routing the
// running firmware build cannot select.
func StrategyFromName(name string) (SupplyStrategy, bool) {
	for i, n := range strategyNames {
		if n == name {
			return SupplyStrategy(i), true
		}
	}
	return SupplyDefault, false
}

// supplyRouting maps each strategy to the CR3 routing bits it commits,
// indexed by strategy value. RM0399 Rev 3 Table 32. One table serves the
// write phase, the verify phase and host-side display, so verification
// always checks exactly the pattern that was written.
var supplyRouting = [6]SupplyBits{
	SupplyDefault: {},
	SupplyLDO:     {LDOEnabled: true},
	2:             {SMPSEnabled: true},
	3:             {SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 1},
	4:             {SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 2},
	SupplyBypass:  {Bypass: true},
}

// SupplyFor returns the routing bits a strategy commits. Out-of-range
// values decode as the empty pattern; Freeze rejects them before writing.
func SupplyFor(strategy SupplyStrategy) SupplyBits {
	if int(strategy) < len(supplyRouting) {
		return supplyRouting[strategy]
	}
	return SupplyBits{}
}

// SupplySelector carries the requested supply strategy and the overdrive
// request until Freeze commits them. It is a plain value: every builder
// returns a new selector and nothing here touches hardware, so the
// selection logic tests without a target attached.
//
// The zero value selects SupplyDefault with no overdrive.
type SupplySelector struct {
	strategy  SupplyStrategy
	overdrive bool
}

// NewSupplySelector returns a selector holding the safe default
// configuration.
func NewSupplySelector() SupplySelector {
	return SupplySelector{}
}

// WithStrategy returns a copy of the selector holding the given strategy.
func (s SupplySelector) WithStrategy(strategy SupplyStrategy) SupplySelector {
	s.strategy = strategy
	return s
}

// LDO selects the internal linear regulator as the VCORE source.
func (s SupplySelector) LDO() SupplySelector {
	return s.WithStrategy(SupplyLDO)
}

// Bypass selects an external VCORE supply and disables the management
// unit.
func (s SupplySelector) Bypass() SupplySelector {
	return s.WithStrategy(SupplyBypass)
}

// RequestOverdrive asks Freeze to escalate to the VOS0 operating point
// after the high performance scale is reached. Only revision V silicon
// offers VOS0; on a driver without the capability Freeze faults.
func (s SupplySelector) RequestOverdrive() SupplySelector {
	s.overdrive = true
	return s
}

// Strategy returns the selected supply strategy.
func (s SupplySelector) Strategy() SupplyStrategy { return s.strategy }

// OverdriveRequested reports whether RequestOverdrive was applied.
func (s SupplySelector) OverdriveRequested() bool { return s.overdrive }
