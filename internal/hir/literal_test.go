package hir

import (
	"testing"

	"github.com/sunholo/hirgo/internal/istr"
)

func TestEncodedLiteralEqualByteExact(t *testing.T) {
	a := EncodedLiteral{Bytes: []byte{1, 2, 3}}
	b := EncodedLiteral{Bytes: []byte{1, 2, 3}}
	if !a.Equal(b) {
		t.Fatalf("identical byte payloads must compare Equal")
	}
	c := EncodedLiteral{Bytes: []byte{1, 2, 4}}
	if a.Equal(c) {
		t.Fatalf("differing byte payloads must not compare Equal")
	}
}

func TestEncodedLiteralEqualIsRelocationExact(t *testing.T) {
	target := NewSimplePath(istr.Intern("k"), istr.Intern("Foo"))
	a := EncodedLiteral{
		Bytes:       make([]byte, 8),
		Relocations: []Reloc{{Ofs: 0, Len: 8, P: &Path{Kind: PathGeneric, Generic: GenericPath{Path: target}}}},
	}
	b := EncodedLiteral{
		Bytes:       make([]byte, 8),
		Relocations: []Reloc{{Ofs: 0, Len: 8, P: &Path{Kind: PathGeneric, Generic: GenericPath{Path: target}}}},
	}
	if !a.Equal(b) {
		t.Fatalf("identical relocations must compare Equal")
	}

	c := EncodedLiteral{Bytes: make([]byte, 8)} // no relocation at all
	if a.Equal(c) {
		t.Fatalf("a literal with a relocation must not equal one without")
	}
}

func TestEncodedLiteralReadUintLittleEndian(t *testing.T) {
	e := EncodedLiteral{Bytes: []byte{0x01, 0x00, 0x00, 0x00}}
	if got := e.ReadUint(0, 4, LittleEndian, 8); got != 1 {
		t.Fatalf("little-endian read of 01 00 00 00 must be 1, got %d", got)
	}
}

func TestEncodedLiteralReadUintBigEndian(t *testing.T) {
	e := EncodedLiteral{Bytes: []byte{0x00, 0x00, 0x00, 0x01}}
	if got := e.ReadUint(0, 4, BigEndian, 8); got != 1 {
		t.Fatalf("big-endian read of 00 00 00 01 must be 1, got %d", got)
	}
}

func TestEncodedLiteralReadUintPointerWidth(t *testing.T) {
	e := EncodedLiteral{Bytes: []byte{0xFF, 0, 0, 0, 0, 0, 0, 0}}
	if got := e.ReadUint(0, 0, LittleEndian, 4); got != 0xFF {
		t.Fatalf("width=0 must use the configured pointer width, got %d", got)
	}
}
