package hir

import "bytes"

// ByteOrder selects little- or big-endian reads of an EncodedLiteral,
// per target (§3.7).
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Reloc is one relocation entry in an EncodedLiteral: a byte range that
// is either a pointer to another item (P) or a fresh byte blob to splice
// in (Bytes) — mutually exclusive (§3.7).
type Reloc struct {
	Ofs   int
	Len   int
	P     *Path
	Bytes []byte
}

// EncodedLiteral is the byte-exact representation of a compile-time
// constant value (§3.7). Equality is byte-exact and relocation-exact.
type EncodedLiteral struct {
	Bytes       []byte
	Relocations []Reloc
}

// Equal implements the byte-exact, relocation-exact equality required by
// §3.7.
func (e EncodedLiteral) Equal(o EncodedLiteral) bool {
	if !bytes.Equal(e.Bytes, o.Bytes) || len(e.Relocations) != len(o.Relocations) {
		return false
	}
	for i := range e.Relocations {
		a, b := e.Relocations[i], o.Relocations[i]
		if a.Ofs != b.Ofs || a.Len != b.Len {
			return false
		}
		if (a.P == nil) != (b.P == nil) {
			return false
		}
		if a.P != nil && a.P.String() != b.P.String() {
			return false
		}
		if !bytes.Equal(a.Bytes, b.Bytes) {
			return false
		}
	}
	return true
}

// ReadUint reads an unsigned integer of the given byte width at offset
// ofs, honouring order. ptrWidth is the configured target pointer width
// in bytes, used when width == 0 to mean "pointer-sized" (§3.7).
func (e EncodedLiteral) ReadUint(ofs, width int, order ByteOrder, ptrWidth int) uint64 {
	if width == 0 {
		width = ptrWidth
	}
	b := e.Bytes[ofs : ofs+width]
	var v uint64
	if order == LittleEndian {
		for i := width - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	} else {
		for i := 0; i < width; i++ {
			v = v<<8 | uint64(b[i])
		}
	}
	return v
}
