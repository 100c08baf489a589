//go:build stm32h747 || !tinygo

package core

// SMPS supply strategies. Only parts with the integrated step-down
// converter (the dual-core packages) can route these, so the constants
// and their builders exist only for those device builds and for host
// builds. A single-core firmware build cannot even name them.

const (
	// SupplySMPS supplies the VCORE domains directly from the step-down
	// converter. The converter output follows the VOS setting.
	SupplySMPS SupplyStrategy = 2

	// SupplySMPS1V8FeedsLDO runs the converter at a fixed 1.8V output
	// that feeds the linear regulator input.
	SupplySMPS1V8FeedsLDO SupplyStrategy = 3

	// SupplySMPS2V5FeedsLDO runs the converter at a fixed 2.5V output
	// that feeds the linear regulator input.
	SupplySMPS2V5FeedsLDO SupplyStrategy = 4
)

// DirectSMPS selects the step-down converter as the only VCORE source.
func (s SupplySelector) DirectSMPS() SupplySelector {
	return s.WithStrategy(SupplySMPS)
}

// SMPS1V8FeedsLDO selects the converter at 1.8V feeding the regulator.
func (s SupplySelector) SMPS1V8FeedsLDO() SupplySelector {
	return s.WithStrategy(SupplySMPS1V8FeedsLDO)
}

// SMPS2V5FeedsLDO selects the converter at 2.5V feeding the regulator.
func (s SupplySelector) SMPS2V5FeedsLDO() SupplySelector {
	return s.WithStrategy(SupplySMPS2V5FeedsLDO)
}
