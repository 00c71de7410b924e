package txcodec

import "fmt"

// appendCompactU16 appends a length in the compact-u16 ("shortvec")
// encoding used by message serialization: 7 bits per byte, low bits
// first, high bit as continuation marker.
func appendCompactU16(buf []byte, v int) []byte {
	if v < 0 || v > 0xffff {
		panic(fmt.Sprintf("compact-u16 out of range: %d", v))
	}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
