package codec

import (
	"bytes"
	"testing"

	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/istr"
)

func roundtripU64c(t *testing.T, v uint64) uint64 {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteU64c(v)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return r.ReadU64c()
}

// TestU64cClosure is §8's "Varint closure" property: for all u in
// [0, 2^64), read(write(u)) == u.
func TestU64cClosure(t *testing.T) {
	cases := []uint64{
		0, 1, 0x7F, 0x80, 0x3FFF, 1 << 22, (1 << 22) - 1, (1 << 38) - 1,
		1 << 38, 1<<64 - 1, 12345678901234,
	}
	for _, v := range cases {
		if got := roundtripU64c(t, v); got != v {
			t.Errorf("u64c roundtrip(%d) = %d", v, got)
		}
	}
}

func roundtripI64c(t *testing.T, v int64) int64 {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteI64c(v)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return r.ReadI64c()
}

// TestI64cClosure covers the zigzag encoding across the signed range,
// including INT64_MIN's documented 0|1 encoding (§4.1, §8).
func TestI64cClosure(t *testing.T) {
	cases := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808}
	for _, v := range cases {
		if got := roundtripI64c(t, v); got != v {
			t.Errorf("i64c roundtrip(%d) = %d", v, got)
		}
	}
}

func TestI64cMinIsZigzagOneBitSentinel(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteI64c(-9223372036854775808)
	w.Close()
	r, _ := NewReader(&buf)
	got := r.ReadU64c()
	if got != 1 {
		t.Fatalf("INT64_MIN must zigzag-encode to u64c value 1, got %d", got)
	}
}

func TestCountRoundtrip(t *testing.T) {
	cases := []uint32{0, 1, 0xFC, 0xFD, 0xFFFF, 0x10000, ^uint32(0)}
	for _, v := range cases {
		var buf bytes.Buffer
		w, _ := NewWriter(&buf)
		w.WriteCount(v)
		w.Close()
		r, _ := NewReader(&buf)
		if got := r.ReadCount(); got != v {
			t.Errorf("count roundtrip(%d) = %d", v, got)
		}
	}
}

func TestBoolRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteBool(true)
	w.WriteBool(false)
	w.Close()
	r, _ := NewReader(&buf)
	if !r.ReadBool() {
		t.Fatal("expected true")
	}
	if r.ReadBool() {
		t.Fatal("expected false")
	}
}

func TestBoolInvalidByteIsFatal(t *testing.T) {
	// Fabricate a stream whose only content is one bad bool byte,
	// compressed the same way NewWriter would produce.
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteU8(0x42) // neither 0x00 nor 0xFF
	w.Close()

	r, _ := NewReader(&buf)
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected a panic on an invalid bool byte")
		}
		de, ok := rec.(*diag.Error)
		if !ok || de.Code != diag.COD407 {
			t.Fatalf("expected diag.COD407, got %v", rec)
		}
	}()
	r.ReadBool()
}

func TestStringRoundtrip(t *testing.T) {
	cases := []string{"", "a", "hello, world", string(make([]byte, 200))}
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	for _, s := range cases {
		w.WriteString(s)
	}
	w.Close()
	r, _ := NewReader(&buf)
	for _, want := range cases {
		if got := r.ReadString(); got != want {
			t.Errorf("string roundtrip mismatch: got %q want %q", got, want)
		}
	}
}

func TestStringTableAndIStrDictionaryIndex(t *testing.T) {
	istr.ClearAll()
	a := istr.Intern("alpha")
	b := istr.Intern("beta")
	used := []istr.IStr{a, b}

	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteStringTable(used)
	w.WriteIStr(a)
	w.WriteIStr(b)
	w.WriteIStr(a)
	w.Close()

	r, _ := NewReader(&buf)
	r.ReadStringTable()
	if got := r.ReadIStr().Raw(); got != "alpha" {
		t.Errorf("got %q want alpha", got)
	}
	if got := r.ReadIStr().Raw(); got != "beta" {
		t.Errorf("got %q want beta", got)
	}
	if got := r.ReadIStr().Raw(); got != "alpha" {
		t.Errorf("got %q want alpha (repeat reference)", got)
	}
}

func TestIStrOutOfRangeIsFatal(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteStringTable(nil)
	w.WriteU64c(3) // no entries exist
	w.Close()

	r, _ := NewReader(&buf)
	r.ReadStringTable()
	defer func() {
		rec := recover()
		de, ok := rec.(*diag.Error)
		if !ok || de.Code != diag.COD403 {
			t.Fatalf("expected diag.COD403, got %v", rec)
		}
	}()
	r.ReadIStr()
}

func TestObjectFramingRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.OpenObject("Crate")
	w.WriteU8(7)
	w.OpenObject("Module") // second object, new name
	w.WriteU8(9)
	w.CloseObject()
	w.OpenObject("Crate") // re-use of an already-tabled name: no literal re-emitted
	w.WriteU8(1)
	w.CloseObject()
	w.CloseObject()
	w.Close()

	r, _ := NewReader(&buf)
	r.OpenObject("Crate")
	if got := r.ReadU8(); got != 7 {
		t.Fatalf("got %d want 7", got)
	}
	r.OpenObject("Module")
	if got := r.ReadU8(); got != 9 {
		t.Fatalf("got %d want 9", got)
	}
	r.CloseObject()
	r.OpenObject("Crate")
	if got := r.ReadU8(); got != 1 {
		t.Fatalf("got %d want 1", got)
	}
	r.CloseObject()
	r.CloseObject()
}

func TestOpenObjectNameMismatchIsFatal(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.OpenObject("Crate")
	w.Close()

	r, _ := NewReader(&buf)
	defer func() {
		rec := recover()
		de, ok := rec.(*diag.Error)
		if !ok || de.Code != diag.COD406 {
			t.Fatalf("expected diag.COD406 on name mismatch, got %v", rec)
		}
	}()
	r.OpenObject("Module")
}

func TestAnonObjectSkipsNameValidation(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.OpenAnonObject()
	w.WriteU8(42)
	w.CloseObject()
	w.Close()

	r, _ := NewReader(&buf)
	r.OpenObject("anything at all")
	if got := r.ReadU8(); got != 42 {
		t.Fatalf("got %d want 42", got)
	}
	r.CloseObject()
}

func TestFixedWidthIntsRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteU8(0xAB)
	w.WriteU16(0xBEEF)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(0x0123456789ABCDEF)
	w.Close()

	r, _ := NewReader(&buf)
	if got := r.ReadU8(); got != 0xAB {
		t.Errorf("u8 got %x", got)
	}
	if got := r.ReadU16(); got != 0xBEEF {
		t.Errorf("u16 got %x", got)
	}
	if got := r.ReadU32(); got != 0xDEADBEEF {
		t.Errorf("u32 got %x", got)
	}
	if got := r.ReadU64(); got != 0x0123456789ABCDEF {
		t.Errorf("u64 got %x", got)
	}
}
