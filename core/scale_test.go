package core

import "testing"

func TestZeroScaleIsInvalid(t *testing.T) {
	var vos VoltageScale
	if vos.Index() != -1 {
		t.Errorf("zero value index %d, want -1", vos.Index())
	}
	if vos.MaxSysClkHz() != 0 {
		t.Errorf("zero value ceiling %d, want 0", vos.MaxSysClkHz())
	}
	if vos.String() != "unset" {
		t.Errorf("zero value prints %q, want unset", vos.String())
	}
}

func TestScaleCeilings(t *testing.T) {
	cases := []struct {
		vos  VoltageScale
		idx  int
		max  uint32
		bits uint8
	}{
		{VoltageScale{code: scale0Code}, 0, 480000000, 0b11},
		{VoltageScale{code: scale1Code}, 1, 400000000, 0b11},
		{VoltageScale{code: scale2Code}, 2, 300000000, 0b10},
		{VoltageScale{code: scale3Code}, 3, 200000000, 0b01},
	}
	for _, tc := range cases {
		if tc.vos.Index() != tc.idx {
			t.Errorf("index %d, want %d", tc.vos.Index(), tc.idx)
		}
		if tc.vos.MaxSysClkHz() != tc.max {
			t.Errorf("Scale%d ceiling %d, want %d", tc.idx, tc.vos.MaxSysClkHz(), tc.max)
		}
		if tc.vos.VOSBits() != tc.bits {
			t.Errorf("Scale%d VOS bits 0b%b, want 0b%b", tc.idx, tc.vos.VOSBits(), tc.bits)
		}
	}
}

func TestCheckSysClk(t *testing.T) {
	if err := CheckSysClk(VoltageScale{}, 64000000); err != ErrScaleUnset {
		t.Errorf("unset scale: err = %v, want ErrScaleUnset", err)
	}

	scale1 := VoltageScale{code: scale1Code}
	if err := CheckSysClk(scale1, 400000000); err != nil {
		t.Errorf("400MHz at Scale1: err = %v, want nil", err)
	}
	if err := CheckSysClk(scale1, 480000000); err != ErrSysClkTooFast {
		t.Errorf("480MHz at Scale1: err = %v, want ErrSysClkTooFast", err)
	}

	scale0 := VoltageScale{code: scale0Code}
	if err := CheckSysClk(scale0, 480000000); err != nil {
		t.Errorf("480MHz at Scale0: err = %v, want nil", err)
	}
}
