// Package bx holds small fixed-width byte encode/decode helpers shared by
// every on-disk format in this module (schema page, page directory page,
// slotted page, record payloads). Everything is little-endian.
package bx

import (
	"encoding/binary"
	"math"
)

var le = binary.LittleEndian

func GetU16(b []byte, off int) uint16 { return le.Uint16(b[off:]) }
func PutU16(b []byte, off int, v uint16) { le.PutUint16(b[off:], v) }

func GetU32(b []byte, off int) uint32 { return le.Uint32(b[off:]) }
func PutU32(b []byte, off int, v uint32) { le.PutUint32(b[off:], v) }

func GetI32(b []byte, off int) int32 { return int32(GetU32(b, off)) }
func PutI32(b []byte, off int, v int32) { PutU32(b, off, uint32(v)) }

func GetF64(b []byte, off int) float64 {
	return math.Float64frombits(le.Uint64(b[off:]))
}

func PutF64(b []byte, off int, v float64) {
	le.PutUint64(b[off:], math.Float64bits(v))
}

func GetBool(b []byte, off int) bool { return b[off] != 0 }

func PutBool(b []byte, off int, v bool) {
	if v {
		b[off] = 1
	} else {
		b[off] = 0
	}
}

// PutCString writes s followed by a single NUL terminator starting at off,
// returning the offset just past the terminator.
func PutCString(b []byte, off int, s string) int {
	n := copy(b[off:], s)
	b[off+n] = 0
	return off + n + 1
}

// GetCString reads a NUL-terminated string starting at off, returning the
// string and the offset just past the terminator.
func GetCString(b []byte, off int) (string, int) {
	start := off
	for b[off] != 0 {
		off++
	}
	return string(b[start:off]), off + 1
}
