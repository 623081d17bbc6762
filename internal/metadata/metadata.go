// Package metadata implements the crate metadata file format (§6.1,
// component C5): binary serialisation/deserialisation of a hir.Crate onto
// the internal/codec primitive stream, plus the post-load pass that
// rebuilds the trait-handle table the wire format omits.
//
// Grounded on the teacher's internal/iface (module-interface export
// shape) for the top-level Write/Read entry points, generalised from a
// JSON-normalised interface snapshot to the spec's exact binary tag
// layout.
package metadata

import (
	"io"

	"github.com/google/uuid"

	"github.com/sunholo/hirgo/internal/codec"
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/schema"
)

// WriteCrate serialises c onto w per §6.1: a schema string (§10.3), a
// build-id header (§12), then the string table, then the Crate object in
// the eleven-item order the section specifies. Neither the schema string
// nor the build id is one of §6.1's eleven numbered items — both live in
// the file header, ahead of the string table, so a tool can read them
// without decoding the rest.
func WriteCrate(w io.Writer, c *hir.Crate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(*diag.Error); ok {
				err = de
				return
			}
			panic(r)
		}
	}()

	if c.BuildID == "" {
		c.BuildID = uuid.NewString()
	}

	cw, werr := codec.NewWriter(w)
	if werr != nil {
		return werr
	}
	cw.WriteString(schema.MetaV1)
	cw.WriteString(c.BuildID)
	cw.WriteStringTable(istr.DictionaryOrder())

	enc := &encoder{w: cw}
	enc.writeCrate(c)

	return cw.Close()
}

// ReadCrate deserialises a Crate from r, then runs the post-load pass
// (§9, "Cyclic back-references") to rebuild the trait-handle table.
func ReadCrate(r io.Reader) (crate *hir.Crate, err error) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(*diag.Error); ok {
				err = de
				return
			}
			panic(r)
		}
	}()

	cr, rerr := codec.NewReader(r)
	if rerr != nil {
		return nil, rerr
	}
	defer cr.Close()
	gotSchema := cr.ReadString()
	if !schema.Accepts(gotSchema, schema.MetaV1) {
		return nil, diag.Codec(diag.COD408, "metadata: schema %q not accepted, want %s", gotSchema, schema.MetaV1)
	}
	buildID := cr.ReadString()
	cr.ReadStringTable()

	dec := &decoder{r: cr}
	c := dec.readCrate()
	c.BuildID = buildID
	PostLoad(c)
	return c, nil
}

type encoder struct{ w *codec.Writer }
type decoder struct{ r *codec.Reader }
