package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMACompressor provides LZMA compression: the highest compression ratio
// in this package, at the cost of being the slowest. Suited to archival
// payloads that are frozen once and thawed rarely.
type LZMACompressor struct{}

var _ Codec = (*LZMACompressor)(nil)

// NewLZMACompressor creates a new LZMA compressor with default settings.
func NewLZMACompressor() LZMACompressor {
	return LZMACompressor{}
}

// Compress compresses data using LZMA with the library's default writer
// configuration.
func (c LZMACompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer

	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma: create writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma: compress: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma: finalize stream: %w", err)
	}

	return buf.Bytes(), nil
}

// maxLZMAOutput caps how many decompressed bytes Decompress will ever
// produce, regardless of what the compressed stream's header claims,
// upholding this package's hostile-input safety contract.
const maxLZMAOutput = 256 << 20

// Decompress decompresses an LZMA stream previously produced by Compress.
// Output is capped at maxLZMAOutput bytes; a stream that would exceed it
// is rejected rather than exhausting memory. A stream whose header claims a
// dictionary larger than maxLZMAOutput is rejected before the reader
// allocates it.
func (c LZMACompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) >= 5 {
		dictSize := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16 | uint32(data[4])<<24
		if dictSize > maxLZMAOutput {
			return nil, fmt.Errorf("lzma: dictionary size %d exceeds %d byte limit", dictSize, maxLZMAOutput)
		}
	}

	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma: create reader: %w", err)
	}

	limited := io.LimitReader(r, maxLZMAOutput+1)

	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("lzma: decompress: %w", err)
	}

	if len(out) > maxLZMAOutput {
		return nil, fmt.Errorf("lzma: decompressed size exceeds %d byte limit", maxLZMAOutput)
	}

	return out, nil
}
