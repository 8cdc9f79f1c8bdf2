package wire

import (
	"fmt"

	"github.com/arloliu/forma/endian"
	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/pool"
)

// Engine is the fixed byte order forma's wire format requires. Unlike the
// teacher's encoding packages, which let callers pick little- or
// big-endian per blob, forma's wire format is big-endian only (it is a
// bit-exact format, not a configurable one) — so there is no
// WithLittleEndian option here.
var Engine = endian.GetBigEndianEngine()

// PutTag appends a single tag byte.
func PutTag(w *pool.ByteBuffer, t Tag) {
	w.MustWrite([]byte{byte(t)})
}

// PutUint8/PutUint16/PutUint32/PutUint64 append fixed-width big-endian
// integers.
func PutUint8(w *pool.ByteBuffer, v uint8)   { w.MustWrite([]byte{v}) }
func PutUint16(w *pool.ByteBuffer, v uint16) { w.B = Engine.AppendUint16(w.B, v) }
func PutUint32(w *pool.ByteBuffer, v uint32) { w.B = Engine.AppendUint32(w.B, v) }
func PutUint64(w *pool.ByteBuffer, v uint64) { w.B = Engine.AppendUint64(w.B, v) }

// PutBytes appends a 4-byte length prefix followed by data.
func PutBytes(w *pool.ByteBuffer, data []byte) {
	PutUint32(w, uint32(len(data)))
	w.MustWrite(data)
}

// PutSmallBytes appends a 1-byte length prefix followed by data. Caller
// must ensure len(data) <= SmallLenThreshold.
func PutSmallBytes(w *pool.ByteBuffer, data []byte) {
	PutUint8(w, uint8(len(data)))
	w.MustWrite(data)
}

// Reader walks a payload byte slice, tracking position and enforcing
// that every read stays within bounds, converting short reads into
// errs.ErrCorruptStream rather than panicking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential tag-driven reads.
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.data) - r.pos }

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.data) }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrCorruptStream, n, r.Len())
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// Tag reads one tag byte.
func (r *Reader) Tag() (Tag, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return Tag(int8(b[0])), nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads two big-endian bytes.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return Engine.Uint16(b), nil
}

// Uint32 reads four big-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return Engine.Uint32(b), nil
}

// Uint64 reads eight big-endian bytes.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return Engine.Uint64(b), nil
}

// Bytes reads a 4-byte length prefix followed by that many bytes, bounded
// by maxLen (pass 0 for no extra bound beyond remaining input length).
func (r *Reader) Bytes(maxLen uint32) ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	if maxLen > 0 && n > maxLen {
		return nil, fmt.Errorf("%w: length %d exceeds limit %d", errs.ErrCorruptStream, n, maxLen)
	}

	return r.take(int(n))
}

// SmallBytes reads a 1-byte length prefix followed by that many bytes.
func (r *Reader) SmallBytes() ([]byte, error) {
	n, err := r.Uint8()
	if err != nil {
		return nil, err
	}

	return r.take(int(n))
}

// Remaining returns every byte not yet consumed, without advancing the
// read position. Used by custom-type decoders that frame their own body
// and report back how many bytes they consumed.
func (r *Reader) Remaining() []byte {
	return r.data[r.pos:]
}

// Skip advances the read position by n bytes, bounds-checked the same as
// any other read.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}
