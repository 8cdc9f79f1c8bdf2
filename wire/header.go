package wire

import (
	"fmt"

	"github.com/arloliu/forma/errs"
)

// HeaderSize is the fixed size of the envelope prepended to a frozen blob.
const HeaderSize = 4

// Signature is the 3-byte ASCII marker identifying a forma blob.
var Signature = [3]byte{'N', 'P', 'Y'}

// Flags enumerates the recognized (version, compressed?, encrypted?)
// tuples packed into the header's 4th byte. Unknown values are rejected.
type Flags uint8

const (
	FlagsV1Raw              Flags = 0
	FlagsV1Compressed       Flags = 1
	FlagsV1Encrypted        Flags = 2
	FlagsV1CompressedEncrypted Flags = 3
)

// Valid reports whether f is one of the four recognized tuples.
func (f Flags) Valid() bool {
	return f <= FlagsV1CompressedEncrypted
}

// Compressed reports whether f signals a compressed payload.
func (f Flags) Compressed() bool {
	return f == FlagsV1Compressed || f == FlagsV1CompressedEncrypted
}

// Encrypted reports whether f signals an encrypted payload.
func (f Flags) Encrypted() bool {
	return f == FlagsV1Encrypted || f == FlagsV1CompressedEncrypted
}

// FlagsFor packs (compressed?, encrypted?) into the recognized Flags value.
func FlagsFor(compressed, encrypted bool) Flags {
	switch {
	case compressed && encrypted:
		return FlagsV1CompressedEncrypted
	case compressed:
		return FlagsV1Compressed
	case encrypted:
		return FlagsV1Encrypted
	default:
		return FlagsV1Raw
	}
}

// Header is the 4-byte envelope prepended to a frozen blob: the 3-byte
// signature "NPY" followed by a Flags byte.
type Header struct {
	Flags Flags
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[:3], Signature[:])
	b[3] = byte(h.Flags)

	return b
}

// HasSignature reports whether data begins with the forma signature.
func HasSignature(data []byte) bool {
	return len(data) >= 3 && data[0] == Signature[0] && data[1] == Signature[1] && data[2] == Signature[2]
}

// ParseHeader parses a Header from the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header too short", errs.ErrCorruptStream)
	}

	if !HasSignature(data) {
		return Header{}, fmt.Errorf("%w: bad signature", errs.ErrUnrecognizedHeader)
	}

	flags := Flags(data[3])
	if !flags.Valid() {
		return Header{}, fmt.Errorf("%w: flags byte 0x%02x", errs.ErrUnrecognizedHeader, data[3])
	}

	return Header{Flags: flags}, nil
}
