// Package codec implements the low-level, self-describing tagged
// length-prefixed binary stream that the crate metadata format (§6.1) is
// built on (§4.1). The primitive encodings below are bit-exact: any
// compatible implementation MUST match them byte for byte.
//
// The stream is a zlib-compressed byte stream (default, best compression).
// Writer and Reader each hold a scratch buffer; the writer flushes to the
// deflate stream on overflow, the reader refills by inflating — mirroring
// the funxy bundle format's magic+version+payload framing
// (internal/vm/bundle.go in the retrieval pack), but with a hand-rolled
// varint/object layer instead of gob, since gob cannot produce this exact
// wire shape.
package codec

import (
	"bufio"
	"compress/zlib"
	"io"

	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/istr"
)

const scratchSize = 4096

// Writer encodes primitive values onto a zlib-compressed stream, plus the
// front-loaded interned-string dictionary and self-describing object
// framing described in §4.1.
type Writer struct {
	z       *zlib.Writer
	scratch []byte
	names   map[string]uint64 // object class name -> dictionary index
	strings map[string]uint64 // interned string text -> dictionary index
}

// NewWriter wraps w with a best-compression zlib stream. Callers MUST call
// WriteStringTable before writing any structured content, then Close when
// done.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	return &Writer{
		z:       zw,
		scratch: make([]byte, 0, scratchSize),
		names:   make(map[string]uint64),
		strings: make(map[string]uint64),
	}, nil
}

func (w *Writer) rawWrite(p []byte) {
	w.scratch = append(w.scratch, p...)
	if len(w.scratch) >= scratchSize {
		w.flush()
	}
}

func (w *Writer) flush() {
	if len(w.scratch) == 0 {
		return
	}
	w.z.Write(w.scratch)
	w.scratch = w.scratch[:0]
}

// Close flushes the scratch buffer and closes the underlying zlib stream.
func (w *Writer) Close() error {
	w.flush()
	return w.z.Close()
}

// WriteU8/16/32/64 write fixed-width little-endian integers.
func (w *Writer) WriteU8(v uint8)   { w.rawWrite([]byte{v}) }
func (w *Writer) WriteU16(v uint16) { w.rawWrite([]byte{byte(v), byte(v >> 8)}) }
func (w *Writer) WriteU32(v uint32) {
	w.rawWrite([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}
func (w *Writer) WriteU64(v uint64) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	w.rawWrite(b)
}

// WriteBool writes 0x00/0xFF per §4.1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(0xFF)
	} else {
		w.WriteU8(0x00)
	}
}

// WriteU64c writes the variable-width "count/size" encoding of §4.1.
func (w *Writer) WriteU64c(v uint64) {
	switch {
	case v < 0x80:
		w.WriteU8(uint8(v))
	case v < (1 << 22):
		b0 := 0x80 | uint8((v>>16)&0x3F)
		w.WriteU8(b0)
		w.WriteU8(uint8((v >> 8) & 0xFF))
		w.WriteU8(uint8(v & 0xFF))
	case v < (0x3F << 32): // a first byte of 0xFF is reserved for the 9-byte form
		b0 := 0xC0 | uint8((v>>32)&0x3F)
		w.WriteU8(b0)
		// the four following bytes are big-endian, per §4.1
		rest := uint32(v & 0xFFFFFFFF)
		w.rawWrite([]byte{byte(rest >> 24), byte(rest >> 16), byte(rest >> 8), byte(rest)})
	default:
		w.WriteU8(0xFF)
		w.WriteU64(v)
	}
}

// WriteI64c writes the zigzag-of-u64c encoding of §4.1: low bit is sign,
// remaining bits are magnitude; 0|1 encodes INT64_MIN.
func (w *Writer) WriteI64c(v int64) {
	var u uint64
	switch {
	case v >= 0:
		u = uint64(v) << 1
	case v == -1<<63:
		u = 1 // sign set, magnitude 0
	default:
		u = uint64(-v)<<1 | 1
	}
	w.WriteU64c(u)
}

// WriteDouble writes the raw 8 bytes of a float64 in host (here: fixed
// little-endian) order, treated as opaque per §4.1.
func (w *Writer) WriteDouble(bits uint64) { w.WriteU64(bits) }

// WriteCount writes the single-byte-dominant "count" encoding of §4.1.
// The sentinel ~uint32(0) is written as 0xFF.
func (w *Writer) WriteCount(v uint32) {
	switch {
	case v == ^uint32(0):
		w.WriteU8(0xFF)
	case v < 0xFD:
		w.WriteU8(uint8(v))
	case v <= 0xFFFF:
		w.WriteU8(0xFD)
		w.WriteU16(uint16(v))
	default:
		w.WriteU8(0xFE)
		w.WriteU32(v)
	}
}

// rawString writes the non-interned "string" encoding of §4.1: up to 8 MiB.
func (w *Writer) rawString(s string) {
	b := []byte(s)
	n := len(b)
	if n < 0x80 {
		w.WriteU8(uint8(n))
	} else {
		w.WriteU8(uint8(0x80 | (n>>16)&0x7F))
		w.WriteU16(uint16(n & 0xFFFF))
	}
	w.rawWrite(b)
}

// WriteString writes a non-interned string (§4.1).
func (w *Writer) WriteString(s string) { w.rawString(s) }

// WriteBytes writes raw bytes with no length prefix; callers write their
// own count first (used for EncodedLiteral payloads, §3.7).
func (w *Writer) WriteBytes(b []byte) { w.rawWrite(b) }

// WriteStringTable emits the interned-string dictionary: a count followed
// by that many strings, ordered by descending use count (most-used
// first), matching istr.DictionaryOrder. Every other IStr reference in the
// stream is just the dictionary index from here on.
func (w *Writer) WriteStringTable(used []istr.IStr) {
	w.WriteCount(uint32(len(used)))
	for i, s := range used {
		w.rawString(s.Raw())
		w.strings[s.Raw()] = uint64(i)
	}
}

// WriteIStr writes a dictionary-index reference to an already-tabled
// interned string.
func (w *Writer) WriteIStr(s istr.IStr) {
	idx, ok := w.strings[s.Raw()]
	if !ok {
		// Not present in the front-loaded table: this is a writer bug,
		// not a recoverable condition — every IStr reachable from the
		// crate must have been counted before WriteStringTable ran.
		panic(diag.Internal(diag.COD401, nil, "IStr %q missing from dictionary", s.Raw()))
	}
	w.WriteU64c(idx)
}

// OpenObject emits the self-describing object header of §4.1: tag 0xFD, a
// name-dictionary index, and — on first use of that name — the literal
// name string.
func (w *Writer) OpenObject(name string) {
	w.WriteU8(0xFD)
	idx, ok := w.names[name]
	if !ok {
		idx = uint64(len(w.names))
		w.names[name] = idx
		w.WriteU64c(idx)
		w.rawString(name)
		return
	}
	w.WriteU64c(idx)
}

// OpenAnonObject emits tag 0xFE: an object with no class name to validate.
func (w *Writer) OpenAnonObject() { w.WriteU8(0xFE) }

// CloseObject emits tag 0xFF, ending the most recently opened object.
func (w *Writer) CloseObject() { w.WriteU8(0xFF) }

// Reader decodes a stream written by Writer.
type Reader struct {
	br    *bufio.Reader
	zr    io.ReadCloser
	names []string // dictionary index -> class name
	strs  []string // dictionary index -> text
}

// NewReader opens the zlib stream and prepares for decoding.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, diag.Codec(diag.COD401, "bad zlib header: %v", err)
	}
	return &Reader{br: bufio.NewReader(zr), zr: zr}, nil
}

// Close closes the underlying zlib stream.
func (r *Reader) Close() error { return r.zr.Close() }

func (r *Reader) readByte() byte {
	b, err := r.br.ReadByte()
	if err != nil {
		panic(diag.Codec(diag.COD404, "unexpected end of stream: %v", err))
	}
	return b
}

func (r *Reader) readN(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.br, b); err != nil {
		panic(diag.Codec(diag.COD404, "unexpected end of stream reading %d bytes: %v", n, err))
	}
	return b
}

func (r *Reader) ReadU8() uint8 { return r.readByte() }
func (r *Reader) ReadU16() uint16 {
	b := r.readN(2)
	return uint16(b[0]) | uint16(b[1])<<8
}
func (r *Reader) ReadU32() uint32 {
	b := r.readN(4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func (r *Reader) ReadU64() uint64 {
	b := r.readN(8)
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func (r *Reader) ReadBool() bool {
	b := r.readByte()
	switch b {
	case 0x00:
		return false
	case 0xFF:
		return true
	default:
		panic(diag.Codec(diag.COD407, "invalid bool byte 0x%02x", b))
	}
}

func (r *Reader) ReadU64c() uint64 {
	b0 := r.readByte()
	switch {
	case b0 < 0x80:
		return uint64(b0)
	case b0 < 0xC0:
		lo := r.readN(2)
		return uint64(b0&0x3F)<<16 | uint64(lo[0])<<8 | uint64(lo[1])
	case b0 < 0xFF:
		rest := r.readN(4)
		u32 := uint64(rest[0])<<24 | uint64(rest[1])<<16 | uint64(rest[2])<<8 | uint64(rest[3])
		return uint64(b0&0x3F)<<32 | u32
	default:
		return r.ReadU64()
	}
}

func (r *Reader) ReadI64c() int64 {
	u := r.ReadU64c()
	if u&1 == 0 {
		return int64(u >> 1)
	}
	if u == 1 {
		return -1 << 63
	}
	return -int64(u >> 1)
}

func (r *Reader) ReadDouble() uint64 { return r.ReadU64() }

func (r *Reader) ReadCount() uint32 {
	b0 := r.readByte()
	switch {
	case b0 == 0xFF:
		return ^uint32(0)
	case b0 == 0xFD:
		return uint32(r.ReadU16())
	case b0 == 0xFE:
		return r.ReadU32()
	default:
		return uint32(b0)
	}
}

func (r *Reader) readRawString() string {
	b0 := r.readByte()
	var n int
	if b0 < 0x80 {
		n = int(b0)
	} else {
		lo := r.ReadU16()
		n = int(b0&0x7F)<<16 | int(lo)
	}
	return string(r.readN(n))
}

func (r *Reader) ReadString() string { return r.readRawString() }

// ReadBytes reads n raw bytes with no length prefix, the counterpart to
// Writer.WriteBytes.
func (r *Reader) ReadBytes(n int) []byte { return r.readN(n) }

// ReadStringTable populates the dictionary in write order.
func (r *Reader) ReadStringTable() {
	n := r.ReadCount()
	r.strs = make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		r.strs = append(r.strs, r.readRawString())
	}
}

// ReadIStr resolves a dictionary-index reference through the interner.
func (r *Reader) ReadIStr() istr.IStr {
	idx := r.ReadU64c()
	if idx >= uint64(len(r.strs)) {
		panic(diag.Codec(diag.COD403, "string dictionary index %d out of range (table has %d entries)", idx, len(r.strs)))
	}
	return istr.Intern(r.strs[idx])
}

// OpenObject validates the object-framing tag and, for a named object,
// the name against expectedName — a hard error on mismatch is the
// format's only corruption-detection mechanism (§4.1).
func (r *Reader) OpenObject(expectedName string) {
	tag := r.readByte()
	switch tag {
	case 0xFD:
		idx := r.ReadU64c()
		var name string
		if int(idx) == len(r.names) {
			name = r.readRawString()
			r.names = append(r.names, name)
		} else if int(idx) < len(r.names) {
			name = r.names[idx]
		} else {
			panic(diag.Codec(diag.COD403, "object name-dictionary index %d out of range", idx))
		}
		if name != expectedName {
			panic(diag.Codec(diag.COD406, "expected object %q, got %q", expectedName, name))
		}
	case 0xFE:
		// anonymous object: nothing to validate
	default:
		panic(diag.Codec(diag.COD402, "unrecognised object-open tag 0x%02x", tag))
	}
}

// CloseObject validates the closing tag.
func (r *Reader) CloseObject() {
	tag := r.readByte()
	if tag != 0xFF {
		panic(diag.Codec(diag.COD402, "expected object-close tag 0xFF, got 0x%02x", tag))
	}
}
