// Package compress provides the compressor abstraction applied on top of
// forma's tagged payload encoding: Compress(bytes) -> bytes, Decompress
// (bytes) -> bytes, wrapped in a header flag so thaw knows whether to
// invoke it.
//
// The hard safety contract for every Decompressor in this package: given
// arbitrary, possibly hostile input, Decompress must return either bytes
// or a recoverable error. It must never panic and must never allocate
// unbounded memory in response to a crafted size header.
package compress

import "fmt"

// Compressor compresses a payload.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a payload previously produced by the paired
// Compressor. Implementations must uphold the hostile-input safety
// contract documented at the package level.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// Type identifies a compression algorithm on the wire.
type Type uint8

const (
	None Type = iota
	Zstd
	S2
	LZ4
	LZMA
)

// String returns the algorithm's canonical name.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	case LZMA:
		return "lzma"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// New returns a Codec implementing t.
func New(t Type) (Codec, error) {
	switch t {
	case None:
		return NewNoOpCompressor(), nil
	case Zstd:
		return NewZstdCompressor(), nil
	case S2:
		return NewS2Compressor(), nil
	case LZ4:
		return NewLZ4Compressor(), nil
	case LZMA:
		return NewLZMACompressor(), nil
	default:
		return nil, fmt.Errorf("compress: unsupported type %s", t)
	}
}

// Stats summarizes one compression operation, useful for logging and
// tuning which algorithm a caller selects.
type Stats struct {
	Algorithm      Type
	OriginalSize   int64
	CompressedSize int64
}

// Ratio returns CompressedSize / OriginalSize (0 if OriginalSize is 0).
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage (0-100).
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}
