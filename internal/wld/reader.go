package wld

import (
	"encoding/binary"
	"math"
)

// reader is a bounds-safe cursor over one fragment body. A read past the
// end zero-fills and marks the reader failed; fragment parsers check
// failed before storing results so a malformed fragment is dropped rather
// than read out of bounds.
type reader struct {
	data   []byte
	off    int
	failed bool
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) take(n int) []byte {
	if n < 0 || r.off+n > len(r.data) {
		r.off = len(r.data)
		r.failed = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) readI32() int32 {
	return int32(r.readU32())
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readI16() int16 {
	return int16(r.readU16())
}

func (r *reader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readI8() int8 {
	return int8(r.readByte())
}

func (r *reader) readF32() float32 {
	return math.Float32frombits(r.readU32())
}
