package telemetry

import (
	"bytes"
	"testing"

	"gopwr/core"
)

func TestPackBitsMirrorsRegisterLayout(t *testing.T) {
	testCases := []struct {
		name string
		bits core.SupplyBits
		want uint8
	}{
		{"default", core.SupplyBits{}, 0x00},
		{"ldo", core.SupplyBits{LDOEnabled: true}, 0x02},
		{"smps", core.SupplyBits{SMPSEnabled: true}, 0x04},
		{"smps_1v8_feeds_ldo", core.SupplyBits{SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 1}, 0x16},
		{"smps_2v5_feeds_ldo", core.SupplyBits{SMPSEnabled: true, LDOEnabled: true, SMPSLevel: 2}, 0x26},
		{"bypass", core.SupplyBits{Bypass: true}, 0x01},
		{"smps_ext", core.SupplyBits{SMPSEnabled: true, SMPSExtHP: true}, 0x0C},
	}

	for _, tc := range testCases {
		got := PackBits(tc.bits)
		if got != tc.want {
			t.Errorf("%s: PackBits = 0x%02X, want 0x%02X", tc.name, got, tc.want)
		}
		back := UnpackBits(got)
		if back != tc.bits {
			t.Errorf("%s: UnpackBits(0x%02X) = %+v, want %+v", tc.name, got, back, tc.bits)
		}
	}
}

func TestCommitReportRoundTrip(t *testing.T) {
	in := CommitReport{
		Version:     ReportVersion,
		Family:      "stm32h747",
		Strategy:    uint8(core.SupplyLDO),
		Overdrive:   true,
		Scale:       0,
		Bits:        0x02,
		DomainPolls: 12,
		ScalePolls:  40,
		Ticks:       987654,
	}

	body, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out CommitReport
	if err := Unmarshal(body, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("Round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	s := RailSample{Rail: "vdd", Microvolts: 3298000, Microamps: 142000, Microwatts: 468000, Ticks: 5}

	a, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Same sample encoded differently:\n%x\n%x", a, b)
	}
}

func TestDecodeDispatchesOnType(t *testing.T) {
	var link bytes.Buffer
	enc := NewEncoder(&link)

	commit := CommitReport{Version: ReportVersion, Family: "stm32h743", Strategy: uint8(core.SupplyLDO), Scale: 1, Bits: 0x02}
	rail := RailSample{Rail: "vdd", Microvolts: 3300000}
	fault := FaultReport{Kind: uint8(core.FaultMismatch), Field: "PWR.CR3.LDOEN", Strategy: uint8(core.SupplyLDO), Want: 1, Got: 0}

	if err := enc.EmitCommit(commit); err != nil {
		t.Fatalf("EmitCommit failed: %v", err)
	}
	if err := enc.EmitRail(rail); err != nil {
		t.Fatalf("EmitRail failed: %v", err)
	}
	if err := enc.EmitFault(fault); err != nil {
		t.Fatalf("EmitFault failed: %v", err)
	}

	frames := NewDecoder().Feed(link.Bytes())
	if len(frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(frames))
	}

	rec, err := Decode(frames[0])
	if err != nil {
		t.Fatalf("Decode commit failed: %v", err)
	}
	if got, ok := rec.(CommitReport); !ok || got != commit {
		t.Errorf("Commit record mismatch: got %#v", rec)
	}

	rec, err = Decode(frames[1])
	if err != nil {
		t.Fatalf("Decode rail failed: %v", err)
	}
	if got, ok := rec.(RailSample); !ok || got != rail {
		t.Errorf("Rail record mismatch: got %#v", rec)
	}

	rec, err = Decode(frames[2])
	if err != nil {
		t.Fatalf("Decode fault failed: %v", err)
	}
	if got, ok := rec.(FaultReport); !ok || got != fault {
		t.Errorf("Fault record mismatch: got %#v", rec)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode(Frame{Type: RecordType(0x7F), Payload: []byte{0xA0}})
	if err != ErrUnknownRecord {
		t.Errorf("Expected ErrUnknownRecord, got %v", err)
	}
}

func TestNewFaultReportCarriesCoreFault(t *testing.T) {
	f := core.SupplyFault{
		Kind:     core.FaultMismatch,
		Field:    "PWR.CR3.BYPASS",
		Strategy: core.SupplyBypass,
		Want:     1,
		Got:      0,
	}

	r := NewFaultReport(f, 4242)
	if r.Kind != uint8(core.FaultMismatch) || r.Field != "PWR.CR3.BYPASS" {
		t.Errorf("Fault identity lost: %+v", r)
	}
	if r.Strategy != uint8(core.SupplyBypass) || r.Want != 1 || r.Got != 0 || r.Ticks != 4242 {
		t.Errorf("Fault detail lost: %+v", r)
	}
}
