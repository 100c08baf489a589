package telemetry

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Record bodies use canonical CBOR so identical reports byte-compare in
// captures. Decoding stays permissive about unknown and duplicate keys,
// which is how old hosts survive new device firmware.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic("telemetry: encoder mode: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic("telemetry: decoder mode: " + err.Error())
	}
}

// Marshal encodes a record body with the package encoding options.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a record body.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// NewStreamEncoder returns a CBOR encoder that writes values to w with
// the package encoding options. Session archives use it.
func NewStreamEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewStreamDecoder returns the matching stream decoder.
func NewStreamDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
