// Package profile describes the expected power configuration of one
// board build. The monitor cross-checks firmware reports against the
// profile; the CLI validates profiles before they reach a bench.
package profile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gopwr/core"
)

// Rail bounds one measured supply rail.
type Rail struct {
	Name          string `yaml:"name"`
	MinMicrovolts int32  `yaml:"min_microvolts"`
	MaxMicrovolts int32  `yaml:"max_microvolts"`
}

// Profile is the host-side description of one board build. Supply uses
// the wire names: default, ldo, smps, smps_1v8_feeds_ldo,
// smps_2v5_feeds_ldo, bypass.
type Profile struct {
	Board     string `yaml:"board"`
	Chip      string `yaml:"chip"`
	Revision  string `yaml:"revision"`
	Supply    string `yaml:"supply"`
	Overdrive bool   `yaml:"overdrive"`
	SysClkHz  uint32 `yaml:"sysclk_hz"`
	Rails     []Rail `yaml:"rails"`
}

var (
	ErrUnknownChip       = errors.New("unknown chip")
	ErrUnknownSupply     = errors.New("unknown supply strategy")
	ErrSupplyUnsupported = errors.New("supply strategy not available on this chip")
	ErrOverdriveRevision = errors.New("overdrive needs revision V silicon")
	ErrSysClkOverCeiling = errors.New("sysclk exceeds the voltage scale ceiling")
	ErrRailBounds        = errors.New("rail bounds inverted")
)

// chipSMPS lists the supported chips and whether they carry the
// step-down converter.
var chipSMPS = map[string]bool{
	"stm32h743": false,
	"stm32h747": true,
}

// Parse parses and validates a profile from YAML bytes.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load loads and validates a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate cross-checks the profile the way the firmware will at commit
// time, so an illegal combination dies on the desk instead of latching
// wrong bits on the bench.
func (p *Profile) Validate() error {
	smps, ok := chipSMPS[p.Chip]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChip, p.Chip)
	}
	bits, err := p.ExpectedBits()
	if err != nil {
		return err
	}
	if bits.SMPSEnabled && !smps {
		return fmt.Errorf("%w: %s on %s", ErrSupplyUnsupported, p.Supply, p.Chip)
	}
	if p.Overdrive && p.Revision != "V" {
		return fmt.Errorf("%w: revision %q", ErrOverdriveRevision, p.Revision)
	}
	if p.SysClkHz > p.Ceiling() {
		return fmt.Errorf("%w: %d > %d", ErrSysClkOverCeiling, p.SysClkHz, p.Ceiling())
	}
	for _, r := range p.Rails {
		if r.MinMicrovolts > r.MaxMicrovolts {
			return fmt.Errorf("%w: rail %q", ErrRailBounds, r.Name)
		}
	}
	return nil
}

// Strategy resolves the profile's supply name.
func (p *Profile) Strategy() (core.SupplyStrategy, error) {
	s, ok := core.StrategyFromName(p.Supply)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSupply, p.Supply)
	}
	return s, nil
}

// ExpectedBits returns the CR3 routing pattern the firmware should
// report for this profile.
func (p *Profile) ExpectedBits() (core.SupplyBits, error) {
	s, err := p.Strategy()
	if err != nil {
		return core.SupplyBits{}, err
	}
	return core.SupplyFor(s), nil
}

// ExpectedScale returns the scale index the commit should grant: 0 with
// overdrive, 1 without.
func (p *Profile) ExpectedScale() int {
	if p.Overdrive {
		return 0
	}
	return 1
}

// Ceiling returns the SYSCLK ceiling for the expected scale.
func (p *Profile) Ceiling() uint32 {
	if p.Overdrive {
		return core.VOS0MaxHz
	}
	return core.VOS1MaxHz
}

// RailBounds returns the bounds for a named rail, if the profile has
// them.
func (p *Profile) RailBounds(name string) (Rail, bool) {
	for _, r := range p.Rails {
		if r.Name == name {
			return r, true
		}
	}
	return Rail{}, false
}
