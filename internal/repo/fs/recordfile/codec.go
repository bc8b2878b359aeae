package recordfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Codec converts records of type T to and from a fixed-size byte image.
type Codec[T any] interface {
	// Size is the exact length of every encoded record.
	Size() int
	Encode(buf []byte, rec T) error
	Decode(buf []byte) (T, error)
}

var order = binary.LittleEndian

// ErrFieldTooLong is returned when a string does not fit its fixed field.
var ErrFieldTooLong = errors.New("field exceeds capacity")

// StringSize is the on-disk size of a string field of the given capacity:
// a 2-byte length prefix followed by the fixed buffer.
func StringSize(capacity int) int { return 2 + capacity }

// Encoder writes fixed-width little-endian fields into a record buffer.
// The first error sticks; later writes are no-ops.
type Encoder struct {
	buf []byte
	off int
	err error
}

func NewEncoder(buf []byte) *Encoder {
	clear(buf)
	return &Encoder{buf: buf}
}

func (e *Encoder) room(n int) bool {
	if e.err != nil {
		return false
	}
	if e.off+n > len(e.buf) {
		e.err = fmt.Errorf("record buffer overflow at offset %d", e.off)
		return false
	}
	return true
}

func (e *Encoder) Uint32(v uint32) {
	if e.room(4) {
		order.PutUint32(e.buf[e.off:], v)
		e.off += 4
	}
}

func (e *Encoder) Int32(v int32) { e.Uint32(uint32(v)) }

func (e *Encoder) Int64(v int64) {
	if e.room(8) {
		order.PutUint64(e.buf[e.off:], uint64(v))
		e.off += 8
	}
}

func (e *Encoder) Float64(v float64) {
	if e.room(8) {
		order.PutUint64(e.buf[e.off:], math.Float64bits(v))
		e.off += 8
	}
}

func (e *Encoder) Bool(v bool) {
	if e.room(1) {
		if v {
			e.buf[e.off] = 1
		}
		e.off++
	}
}

// String writes s into a field of the given capacity.
func (e *Encoder) String(s string, capacity int) {
	if e.err != nil {
		return
	}
	if len(s) > capacity || capacity > math.MaxUint16 {
		e.err = fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(s), capacity)
		return
	}
	if e.room(StringSize(capacity)) {
		order.PutUint16(e.buf[e.off:], uint16(len(s)))
		copy(e.buf[e.off+2:], s)
		e.off += StringSize(capacity)
	}
}

func (e *Encoder) Err() error { return e.err }

// Decoder reads fields written by Encoder in the same order.
type Decoder struct {
	buf []byte
	off int
	err error
}

func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("record truncated at offset %d", d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Uint32() uint32 {
	if b := d.take(4); b != nil {
		return order.Uint32(b)
	}
	return 0
}

func (d *Decoder) Int32() int32 { return int32(d.Uint32()) }

func (d *Decoder) Int64() int64 {
	if b := d.take(8); b != nil {
		return int64(order.Uint64(b))
	}
	return 0
}

func (d *Decoder) Float64() float64 {
	if b := d.take(8); b != nil {
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}

func (d *Decoder) Bool() bool {
	if b := d.take(1); b != nil {
		return b[0] != 0
	}
	return false
}

func (d *Decoder) String(capacity int) string {
	b := d.take(StringSize(capacity))
	if b == nil {
		return ""
	}
	n := int(order.Uint16(b))
	if n > capacity {
		d.err = fmt.Errorf("string length %d exceeds capacity %d", n, capacity)
		return ""
	}
	return string(b[2 : 2+n])
}

func (d *Decoder) Err() error { return d.err }
