package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopwr/core"
	"gopwr/host/profile"
)

const nucleoH747 = `
board: nucleo-h747
chip: stm32h747
revision: V
supply: smps
overdrive: true
sysclk_hz: 480000000
rails:
  - name: vdd
    min_microvolts: 3100000
    max_microvolts: 3500000
`

// TestParse_ValidProfile verifies a complete profile parses and resolves
// to the right expectations.
func TestParse_ValidProfile(t *testing.T) {
	p, err := profile.Parse([]byte(nucleoH747))
	require.NoError(t, err)

	assert.Equal(t, "nucleo-h747", p.Board)
	assert.Equal(t, "stm32h747", p.Chip)
	assert.Equal(t, uint32(480000000), p.SysClkHz)

	s, err := p.Strategy()
	require.NoError(t, err)
	assert.Equal(t, core.SupplySMPS, s)

	bits, err := p.ExpectedBits()
	require.NoError(t, err)
	assert.Equal(t, core.SupplyBits{SMPSEnabled: true}, bits)

	assert.Equal(t, 0, p.ExpectedScale())
	assert.Equal(t, core.VOS0MaxHz, p.Ceiling())

	rail, ok := p.RailBounds("vdd")
	require.True(t, ok)
	assert.Equal(t, int32(3100000), rail.MinMicrovolts)

	_, ok = p.RailBounds("vcore")
	assert.False(t, ok)
}

// TestValidate_Rejections verifies each illegal combination fails with
// its own sentinel.
func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		p       profile.Profile
		wantErr error
	}{
		{
			name:    "unknown chip",
			p:       profile.Profile{Chip: "stm32f407", Supply: "ldo", SysClkHz: 100000000},
			wantErr: profile.ErrUnknownChip,
		},
		{
			name:    "unknown supply",
			p:       profile.Profile{Chip: "stm32h743", Supply: "solar", SysClkHz: 100000000},
			wantErr: profile.ErrUnknownSupply,
		},
		{
			name:    "smps on single-core part",
			p:       profile.Profile{Chip: "stm32h743", Supply: "smps", SysClkHz: 100000000},
			wantErr: profile.ErrSupplyUnsupported,
		},
		{
			name:    "smps feeding ldo on single-core part",
			p:       profile.Profile{Chip: "stm32h743", Supply: "smps_1v8_feeds_ldo", SysClkHz: 100000000},
			wantErr: profile.ErrSupplyUnsupported,
		},
		{
			name:    "overdrive on revision Y",
			p:       profile.Profile{Chip: "stm32h743", Revision: "Y", Supply: "ldo", Overdrive: true, SysClkHz: 400000000},
			wantErr: profile.ErrOverdriveRevision,
		},
		{
			name:    "sysclk above the scale 1 ceiling",
			p:       profile.Profile{Chip: "stm32h743", Revision: "V", Supply: "ldo", SysClkHz: 480000000},
			wantErr: profile.ErrSysClkOverCeiling,
		},
		{
			name:    "sysclk above even the overdrive ceiling",
			p:       profile.Profile{Chip: "stm32h747", Revision: "V", Supply: "smps", Overdrive: true, SysClkHz: 500000000},
			wantErr: profile.ErrSysClkOverCeiling,
		},
		{
			name: "rail bounds inverted",
			p: profile.Profile{
				Chip: "stm32h743", Revision: "V", Supply: "ldo", SysClkHz: 400000000,
				Rails: []profile.Rail{{Name: "vdd", MinMicrovolts: 3500000, MaxMicrovolts: 3100000}},
			},
			wantErr: profile.ErrRailBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestValidate_OverdriveRaisesCeiling verifies 480MHz needs the
// overdrive request to be legal.
func TestValidate_OverdriveRaisesCeiling(t *testing.T) {
	p := profile.Profile{Chip: "stm32h747", Revision: "V", Supply: "smps", SysClkHz: 480000000}
	require.ErrorIs(t, p.Validate(), profile.ErrSysClkOverCeiling)

	p.Overdrive = true
	assert.NoError(t, p.Validate())
}

// TestValidate_DefaultSupply verifies the unconfigured strategy is a
// legal profile choice.
func TestValidate_DefaultSupply(t *testing.T) {
	p := profile.Profile{Chip: "stm32h743", Revision: "V", Supply: "default", SysClkHz: 400000000}
	require.NoError(t, p.Validate())

	bits, err := p.ExpectedBits()
	require.NoError(t, err)
	assert.Equal(t, core.SupplyBits{}, bits)
}

// TestLoad_File verifies the file path loader and its error wrapping.
func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(nucleoH747), 0o644))

	p, err := profile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nucleo-h747", p.Board)

	_, err = profile.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("chip: [not, a, string]"), 0o644))
	_, err = profile.Load(bad)
	assert.Error(t, err)
}
