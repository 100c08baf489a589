package monitor

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"gopwr/host/profile"
	"gopwr/telemetry"
)

// ArchiveHeader opens a capture file and names the session it holds.
type ArchiveHeader struct {
	Session     string `cbor:"1,keyasint"`
	StartedUnix int64  `cbor:"2,keyasint"`
	Board       string `cbor:"3,keyasint,omitempty"`
	Chip        string `cbor:"4,keyasint,omitempty"`
}

// ArchiveEntry wraps one record with its type tag so replay can
// dispatch without re-framing. Exactly one payload pointer is set.
type ArchiveEntry struct {
	Type   uint8                   `cbor:"1,keyasint"`
	Commit *telemetry.CommitReport `cbor:"2,keyasint,omitempty"`
	Rail   *telemetry.RailSample   `cbor:"3,keyasint,omitempty"`
	Fault  *telemetry.FaultReport  `cbor:"4,keyasint,omitempty"`
}

// Archive captures a session's records to a CBOR file. It is safe for
// concurrent use.
type Archive struct {
	file   *os.File
	enc    *cbor.Encoder
	mu     sync.Mutex
	closed bool
}

// CreateArchive starts a capture file for the session, writing the
// header immediately. An existing file at path is truncated.
func CreateArchive(path, session string, prof *profile.Profile) (*Archive, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	enc := telemetry.NewStreamEncoder(f)
	hdr := ArchiveHeader{Session: session, StartedUnix: time.Now().Unix()}
	if prof != nil {
		hdr.Board = prof.Board
		hdr.Chip = prof.Chip
	}
	if err := enc.Encode(hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write archive header: %w", err)
	}

	return &Archive{file: f, enc: enc}, nil
}

// Append captures one decoded record. Encoding errors are dropped;
// capture must not disrupt monitoring.
func (a *Archive) Append(rt telemetry.RecordType, rec interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	e := ArchiveEntry{Type: uint8(rt)}
	switch r := rec.(type) {
	case telemetry.CommitReport:
		e.Commit = &r
	case telemetry.RailSample:
		e.Rail = &r
	case telemetry.FaultReport:
		e.Fault = &r
	default:
		return
	}
	_ = a.enc.Encode(e)
}

// Close closes the capture file. Safe to call more than once; appends
// after Close are silently ignored.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	return a.file.Close()
}

// ReadArchive loads a capture file for replay.
func ReadArchive(path string) (ArchiveHeader, []ArchiveEntry, error) {
	var hdr ArchiveHeader

	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	dec := telemetry.NewStreamDecoder(f)
	if err := dec.Decode(&hdr); err != nil {
		return hdr, nil, fmt.Errorf("failed to read archive header: %w", err)
	}

	var entries []ArchiveEntry
	for {
		var e ArchiveEntry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				break
			}
			return hdr, entries, fmt.Errorf("failed to read archive entry: %w", err)
		}
		entries = append(entries, e)
	}
	return hdr, entries, nil
}
