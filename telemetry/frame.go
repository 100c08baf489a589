package telemetry

import (
	"errors"
	"io"
)

// Frame layout:
//
//	[len][seq][type][payload...][crcHi][crcLo][sync]
//
// len counts the whole frame including the trailer; the CRC covers
// everything before the trailer. The trailing 0x7E sync byte is what a
// desynchronized receiver scans for.
const (
	frameHeaderSize  = 2 // length, sequence
	frameTrailerSize = 3 // crc16, sync
	FrameLengthMin   = frameHeaderSize + 1 + frameTrailerSize
	FrameLengthMax   = 64
	FrameSync        = 0x7E
)

var ErrPayloadTooLarge = errors.New("telemetry: record payload exceeds the frame size")

// Encoder frames records onto the telemetry link. The device owns one,
// pointed at the UART; encoding allocates nothing after construction.
type Encoder struct {
	w   io.Writer
	seq uint8
	buf [FrameLengthMax]byte
}

// NewEncoder returns an encoder writing frames to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteRecord frames one record body and writes it out. The sequence
// byte increments per frame so the receiver can count losses.
func (e *Encoder) WriteRecord(rt RecordType, payload []byte) error {
	total := frameHeaderSize + 1 + len(payload) + frameTrailerSize
	if total > FrameLengthMax {
		return ErrPayloadTooLarge
	}

	e.buf[0] = uint8(total)
	e.buf[1] = e.seq
	e.buf[2] = uint8(rt)
	copy(e.buf[frameHeaderSize+1:], payload)

	crc := CRC16(e.buf[:total-frameTrailerSize])
	e.buf[total-3] = uint8(crc >> 8)
	e.buf[total-2] = uint8(crc & 0xFF)
	e.buf[total-1] = FrameSync

	_, err := e.w.Write(e.buf[:total])
	e.seq++
	return err
}

// Frame is one decoded telemetry frame.
type Frame struct {
	Seq     uint8
	Type    RecordType
	Payload []byte
}

// DecoderStats counts what the decoder has seen since construction.
type DecoderStats struct {
	Frames    uint64
	CRCErrors uint64
	Resyncs   uint64
	Missed    uint64 // frames lost to sequence gaps
}

// Decoder reassembles frames from the raw byte stream. Anything that
// fails validation drops the decoder out of sync; it then scans for the
// next sync byte before decoding resumes, so a corrupted stretch costs
// frames but never wedges the stream.
type Decoder struct {
	buf     []byte
	synced  bool
	started bool
	lastSeq uint8
	stats   DecoderStats
}

// NewDecoder returns a decoder that assumes the stream starts clean.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Feed consumes a chunk of the stream and returns any complete frames.
// Payloads are copies; callers may retain them.
func (d *Decoder) Feed(p []byte) []Frame {
	d.buf = append(d.buf, p...)
	var frames []Frame

	for len(d.buf) > 0 {
		if !d.synced {
			// Scan for a sync byte and resume after it.
			idx := -1
			for i, b := range d.buf {
				if b == FrameSync {
					idx = i
					break
				}
			}
			if idx < 0 {
				d.buf = d.buf[:0]
				break
			}
			d.buf = d.buf[idx+1:]
			d.synced = true
			d.stats.Resyncs++
			continue
		}

		// Skip stray sync bytes between frames.
		if d.buf[0] == FrameSync {
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < FrameLengthMin {
			break
		}

		flen := int(d.buf[0])
		if flen < FrameLengthMin || flen > FrameLengthMax {
			d.synced = false
			continue
		}
		if len(d.buf) < flen {
			break
		}
		if d.buf[flen-1] != FrameSync {
			d.synced = false
			continue
		}
		wantCRC := uint16(d.buf[flen-3])<<8 | uint16(d.buf[flen-2])
		if CRC16(d.buf[:flen-frameTrailerSize]) != wantCRC {
			d.stats.CRCErrors++
			d.synced = false
			continue
		}

		seq := d.buf[1]
		if d.started {
			// uint8 arithmetic handles the wrap at 255.
			d.stats.Missed += uint64(seq - d.lastSeq - 1)
		}
		d.lastSeq = seq
		d.started = true

		payload := make([]byte, flen-frameHeaderSize-1-frameTrailerSize)
		copy(payload, d.buf[frameHeaderSize+1:flen-frameTrailerSize])
		frames = append(frames, Frame{Seq: seq, Type: RecordType(d.buf[2]), Payload: payload})
		d.stats.Frames++
		d.buf = d.buf[flen:]
	}

	return frames
}

// Stats returns the running counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}
