package telemetry

import (
	"errors"

	"gopwr/core"
)

// RecordType tags the payload carried by a frame.
type RecordType uint8

const (
	RecordCommit RecordType = 0x01
	RecordRail   RecordType = 0x02
	RecordFault  RecordType = 0x03
)

// String names the record type for logs and metric labels.
func (rt RecordType) String() string {
	switch rt {
	case RecordCommit:
		return "commit"
	case RecordRail:
		return "rail"
	case RecordFault:
		return "fault"
	}
	return "unknown"
}

// ReportVersion is carried in every commit report so the host can
// reject captures from firmware it does not understand.
const ReportVersion = 1

// Record bodies use integer CBOR keys to stay small on the wire. Key
// numbers are part of the format; never reuse a retired one.

// CommitReport is emitted once, right after the supply configuration
// freezes. It is the device's own account of what it committed.
type CommitReport struct {
	Version        uint8  `cbor:"1,keyasint"`
	Family         string `cbor:"2,keyasint"`
	Strategy       uint8  `cbor:"3,keyasint"`
	Overdrive      bool   `cbor:"4,keyasint,omitempty"`
	Scale          uint8  `cbor:"5,keyasint"`
	Bits           uint8  `cbor:"6,keyasint"`
	DomainPolls    uint32 `cbor:"7,keyasint,omitempty"`
	ScalePolls     uint32 `cbor:"8,keyasint,omitempty"`
	OverdrivePolls uint32 `cbor:"9,keyasint,omitempty"`
	Ticks          uint32 `cbor:"10,keyasint,omitempty"`
}

// RailSample carries one supply rail measurement.
type RailSample struct {
	Rail       string `cbor:"1,keyasint"`
	Microvolts int32  `cbor:"2,keyasint"`
	Microamps  int32  `cbor:"3,keyasint,omitempty"`
	Microwatts int32  `cbor:"4,keyasint,omitempty"`
	Ticks      uint32 `cbor:"5,keyasint,omitempty"`
}

// FaultReport mirrors core.SupplyFault for the wire. The device emits
// it from the fault hook before halting, so the host sees why a board
// went quiet.
type FaultReport struct {
	Kind     uint8  `cbor:"1,keyasint"`
	Field    string `cbor:"2,keyasint"`
	Strategy uint8  `cbor:"3,keyasint"`
	Want     uint8  `cbor:"4,keyasint,omitempty"`
	Got      uint8  `cbor:"5,keyasint,omitempty"`
	Ticks    uint32 `cbor:"6,keyasint,omitempty"`
}

// Supply bit packing follows the dual-core PWR.CR3 layout, so a packed
// report and a raw register dump read the same.
const (
	packBypass    = 1 << 0
	packLDOEn     = 1 << 1
	packSMPSEn    = 1 << 2
	packSMPSExtHP = 1 << 3
	packLevelPos  = 4
	packLevelMask = 0x3
)

// PackBits folds a routing pattern into one wire byte.
func PackBits(b core.SupplyBits) uint8 {
	var v uint8
	if b.Bypass {
		v |= packBypass
	}
	if b.LDOEnabled {
		v |= packLDOEn
	}
	if b.SMPSEnabled {
		v |= packSMPSEn
	}
	if b.SMPSExtHP {
		v |= packSMPSExtHP
	}
	v |= (b.SMPSLevel & packLevelMask) << packLevelPos
	return v
}

// UnpackBits is the inverse of PackBits.
func UnpackBits(v uint8) core.SupplyBits {
	return core.SupplyBits{
		Bypass:      v&packBypass != 0,
		LDOEnabled:  v&packLDOEn != 0,
		SMPSEnabled: v&packSMPSEn != 0,
		SMPSExtHP:   v&packSMPSExtHP != 0,
		SMPSLevel:   (v >> packLevelPos) & packLevelMask,
	}
}

// NewCommitReport assembles the post-freeze report from the supply
// selection, the committed routing and the phase log counters.
func NewCommitReport(family string, sel core.SupplySelector, vos core.VoltageScale, bits core.SupplyBits, ticks uint32) CommitReport {
	return CommitReport{
		Version:        ReportVersion,
		Family:         family,
		Strategy:       uint8(sel.Strategy()),
		Overdrive:      sel.OverdriveRequested(),
		Scale:          uint8(vos.Index()),
		Bits:           PackBits(bits),
		DomainPolls:    core.PollsFor(core.PhaseDomainReady),
		ScalePolls:     core.PollsFor(core.PhaseScaleReady),
		OverdrivePolls: core.PollsFor(core.PhaseOverdrive),
		Ticks:          ticks,
	}
}

// NewFaultReport converts a core fault for the wire.
func NewFaultReport(f core.SupplyFault, ticks uint32) FaultReport {
	return FaultReport{
		Kind:     uint8(f.Kind),
		Field:    f.Field,
		Strategy: uint8(f.Strategy),
		Want:     f.Want,
		Got:      f.Got,
		Ticks:    ticks,
	}
}

// EmitCommit encodes and frames a commit report.
func (e *Encoder) EmitCommit(r CommitReport) error {
	body, err := Marshal(r)
	if err != nil {
		return err
	}
	return e.WriteRecord(RecordCommit, body)
}

// EmitRail encodes and frames a rail sample.
func (e *Encoder) EmitRail(s RailSample) error {
	body, err := Marshal(s)
	if err != nil {
		return err
	}
	return e.WriteRecord(RecordRail, body)
}

// EmitFault encodes and frames a fault report.
func (e *Encoder) EmitFault(r FaultReport) error {
	body, err := Marshal(r)
	if err != nil {
		return err
	}
	return e.WriteRecord(RecordFault, body)
}

// ErrUnknownRecord reports a frame whose type byte no decoder case
// claims.
var ErrUnknownRecord = errors.New("telemetry: unknown record type")

// Decode turns a frame into its typed record.
func Decode(f Frame) (interface{}, error) {
	switch f.Type {
	case RecordCommit:
		var r CommitReport
		err := Unmarshal(f.Payload, &r)
		return r, err
	case RecordRail:
		var s RailSample
		err := Unmarshal(f.Payload, &s)
		return s, err
	case RecordFault:
		var r FaultReport
		err := Unmarshal(f.Payload, &r)
		return r, err
	}
	return nil, ErrUnknownRecord
}
