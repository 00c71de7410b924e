// Package txcodec implements the byte-level wire formats the target
// program expects: fixed-layout instruction payloads, program-derived
// addresses, and legacy message serialization. Layouts here are part of
// the on-chain ABI contract; any drift is rejected on-chain without a
// useful error, so every format is pinned by golden-byte tests.
package txcodec

import (
	"encoding/binary"
	"math"
)

// Writer builds an instruction payload: a one-byte opcode discriminator
// followed by little-endian fixed-width fields in declared order. There
// is no variable-length or self-describing encoding; field order and
// width are fixed by the program's ABI.
type Writer struct {
	buf []byte
}

// NewWriter starts a payload with the given opcode byte.
func NewWriter(opcode byte) *Writer {
	return &Writer{buf: []byte{opcode}}
}

// U8 appends a single byte field.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// U32 appends a 4-byte little-endian field.
func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// U64 appends an 8-byte little-endian field.
func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// F64 appends an 8-byte IEEE-754 double, little-endian bit layout.
func (w *Writer) F64(v float64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
	return w
}

// Pubkey appends the 32 raw address bytes.
func (w *Writer) Pubkey(pk Pubkey) *Writer {
	w.buf = append(w.buf, pk[:]...)
	return w
}

// Bytes returns the assembled payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}
