package metadata

import (
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
)

func (e *encoder) writeSimplePath(p hir.SimplePath) {
	e.w.WriteIStr(p.Crate)
	e.w.WriteCount(uint32(len(p.Components)))
	for _, c := range p.Components {
		e.w.WriteIStr(c)
	}
}

func (d *decoder) readSimplePath() hir.SimplePath {
	crate := d.r.ReadIStr()
	n := d.r.ReadCount()
	comps := make([]istr.IStr, n)
	for i := range comps {
		comps[i] = d.r.ReadIStr()
	}
	return hir.SimplePath{Crate: crate, Components: comps}
}

func (e *encoder) writeGenericRef(g hir.GenericRef) {
	e.w.WriteIStr(g.Name)
	e.w.WriteU8(uint8(g.Group))
	e.w.WriteU8(g.Idx)
}

func (d *decoder) readGenericRef() hir.GenericRef {
	name := d.r.ReadIStr()
	group := hir.GenericGroup(d.r.ReadU8())
	idx := d.r.ReadU8()
	return hir.GenericRef{Name: name, Group: group, Idx: idx}
}

func (e *encoder) writeLifetimeRef(l hir.LifetimeRef) {
	e.w.WriteIStr(l.Name)
	e.writeGenericRef(l.Binding)
}

func (d *decoder) readLifetimeRef() hir.LifetimeRef {
	name := d.r.ReadIStr()
	binding := d.readGenericRef()
	return hir.LifetimeRef{Name: name, Binding: binding}
}

func (e *encoder) writeConstGeneric(c hir.ConstGeneric) {
	e.w.WriteU8(uint8(c.Kind))
	switch c.Kind {
	case hir.ConstGenericKnown:
		e.w.WriteU64c(c.Literal)
	case hir.ConstGenericGeneric:
		e.writeGenericRef(c.Generic)
	case hir.ConstGenericUnevaluated:
		e.w.WriteU64c(c.ExprID)
	}
}

func (d *decoder) readConstGeneric() hir.ConstGeneric {
	kind := hir.ConstGenericKind(d.r.ReadU8())
	c := hir.ConstGeneric{Kind: kind}
	switch kind {
	case hir.ConstGenericKnown:
		c.Literal = d.r.ReadU64c()
	case hir.ConstGenericGeneric:
		c.Generic = d.readGenericRef()
	case hir.ConstGenericUnevaluated:
		c.ExprID = d.r.ReadU64c()
	}
	return c
}

func (e *encoder) writeArraySize(s hir.ArraySize) {
	e.w.WriteU8(uint8(s.Kind))
	switch s.Kind {
	case hir.ArraySizeKnown:
		e.w.WriteU64c(s.Value)
	case hir.ArraySizeUnevaluated:
		e.writeConstGeneric(s.Unevaluated)
	}
}

func (d *decoder) readArraySize() hir.ArraySize {
	kind := hir.ArraySizeKind(d.r.ReadU8())
	s := hir.ArraySize{Kind: kind}
	switch kind {
	case hir.ArraySizeKnown:
		s.Value = d.r.ReadU64c()
	case hir.ArraySizeUnevaluated:
		s.Unevaluated = d.readConstGeneric()
	}
	return s
}

func (e *encoder) writePathParams(p hir.PathParams) {
	e.w.WriteCount(uint32(len(p.Lifetimes)))
	for _, l := range p.Lifetimes {
		e.writeLifetimeRef(l)
	}
	e.w.WriteCount(uint32(len(p.Types)))
	for _, t := range p.Types {
		e.writeType(t)
	}
	e.w.WriteCount(uint32(len(p.Values)))
	for _, v := range p.Values {
		e.writeConstGeneric(v)
	}
}

func (d *decoder) readPathParams() hir.PathParams {
	var p hir.PathParams
	n := d.r.ReadCount()
	p.Lifetimes = make([]hir.LifetimeRef, n)
	for i := range p.Lifetimes {
		p.Lifetimes[i] = d.readLifetimeRef()
	}
	n = d.r.ReadCount()
	p.Types = make([]hir.TypeRef, n)
	for i := range p.Types {
		p.Types[i] = d.readType()
	}
	n = d.r.ReadCount()
	p.Values = make([]hir.ConstGeneric, n)
	for i := range p.Values {
		p.Values[i] = d.readConstGeneric()
	}
	return p
}

func (e *encoder) writeGenericPath(g hir.GenericPath) {
	e.writeSimplePath(g.Path)
	e.writePathParams(g.Params)
}

func (d *decoder) readGenericPath() hir.GenericPath {
	p := d.readSimplePath()
	params := d.readPathParams()
	return hir.GenericPath{Path: p, Params: params}
}

func (e *encoder) writeTraitPath(t hir.TraitPath) {
	e.w.WriteBool(t.HasHRTBs())
	if t.HasHRTBs() {
		e.writeGenericParams(t.HRTBs)
	}
	e.writeGenericPath(t.Path)
	e.w.WriteCount(uint32(len(t.TypeBounds)))
	for name, eq := range t.TypeBounds {
		e.w.WriteString(name)
		e.writeType(eq.Type)
	}
	e.w.WriteCount(uint32(len(t.TraitBounds)))
	for name, b := range t.TraitBounds {
		e.w.WriteString(name)
		e.writeTraitPath(b.Trait)
	}
}

func (d *decoder) readTraitPath() hir.TraitPath {
	var t hir.TraitPath
	hasHRTBs := d.r.ReadBool()
	if hasHRTBs {
		t.HRTBs = d.readGenericParams()
	}
	t.Path = d.readGenericPath()
	n := d.r.ReadCount()
	if n > 0 {
		t.TypeBounds = make(map[string]hir.AtyEqual, n)
		for i := uint32(0); i < n; i++ {
			name := d.r.ReadString()
			ty := d.readType()
			t.TypeBounds[name] = hir.AtyEqual{Name: istr.Intern(name), Type: ty}
		}
	}
	n = d.r.ReadCount()
	if n > 0 {
		t.TraitBounds = make(map[string]hir.AtyBound, n)
		for i := uint32(0); i < n; i++ {
			name := d.r.ReadString()
			tr := d.readTraitPath()
			t.TraitBounds[name] = hir.AtyBound{Name: istr.Intern(name), Trait: tr}
		}
	}
	return t
}

// writePath implements §6.1's `{0:Generic, 1:UfcsInherent, 2:UfcsKnown}`
// tagging; UfcsUnknown must never reach the serialiser.
func (e *encoder) writePath(p hir.Path) {
	switch p.Kind {
	case hir.PathGeneric:
		e.w.WriteU8(0)
		e.writeGenericPath(p.Generic)
	case hir.PathUfcsInherent:
		e.w.WriteU8(1)
		e.writeType(p.UfcsType)
		e.w.WriteIStr(p.UfcsItem)
		e.writePathParams(p.UfcsParams)
		e.writePathParams(p.UfcsImplParams)
	case hir.PathUfcsKnown:
		e.w.WriteU8(2)
		e.writeType(p.UfcsType)
		e.w.WriteIStr(p.UfcsItem)
		e.writeTraitPath(p.UfcsTrait)
		e.w.WriteBool(p.UfcsHRTBs != nil)
		if p.UfcsHRTBs != nil {
			e.writeGenericParams(p.UfcsHRTBs)
		}
		e.writePathParams(p.UfcsParams)
	default:
		panic(diag.Internal(diag.COD405, nil, "attempted to serialise a transient UfcsUnknown path %s", p))
	}
}

func (d *decoder) readPath() hir.Path {
	tag := d.r.ReadU8()
	switch tag {
	case 0:
		return hir.Path{Kind: hir.PathGeneric, Generic: d.readGenericPath()}
	case 1:
		ty := d.readType()
		item := d.r.ReadIStr()
		params := d.readPathParams()
		implParams := d.readPathParams()
		return hir.Path{Kind: hir.PathUfcsInherent, UfcsType: ty, UfcsItem: item, UfcsParams: params, UfcsImplParams: implParams}
	case 2:
		ty := d.readType()
		item := d.r.ReadIStr()
		trait := d.readTraitPath()
		hasHRTBs := d.r.ReadBool()
		var hrtbs *hir.GenericParams
		if hasHRTBs {
			hrtbs = d.readGenericParams()
		}
		params := d.readPathParams()
		return hir.Path{Kind: hir.PathUfcsKnown, UfcsType: ty, UfcsItem: item, UfcsTrait: trait, UfcsHRTBs: hrtbs, UfcsParams: params}
	default:
		panic(diag.Codec(diag.COD402, "unrecognised Path variant tag %d", tag))
	}
}

// typeTag matches TypeKind's declaration order (§6.1, "per-variant tag
// matching TypeData's variant order").
func (e *encoder) writeType(t hir.TypeRef) {
	if !t.IsValid() {
		e.w.WriteU8(uint8(hir.TyInfer))
		e.w.WriteU8(uint8(hir.InferNone))
		return
	}
	e.w.WriteU8(uint8(t.Kind()))
	switch t.Kind() {
	case hir.TyInfer:
		e.w.WriteU8(uint8(t.InferClassOf()))
	case hir.TyDiverge:
	case hir.TyPrimitive:
		e.w.WriteU8(uint8(t.PrimitiveOf()))
	case hir.TyPath:
		e.writePath(t.PathOf())
		binding := t.BindingOf()
		e.w.WriteU8(uint8(binding.State))
		if binding.State != hir.BindingUnbound && binding.State != hir.BindingOpaque {
			e.writeSimplePath(binding.Item)
		}
	case hir.TyGeneric:
		e.writeGenericRef(t.GenericOf())
	case hir.TyTraitObject:
		e.writeTraitPath(t.ObjTraitOf())
		markers := t.ObjMarkersOf()
		e.w.WriteCount(uint32(len(markers)))
		for _, m := range markers {
			e.writeTraitPath(m)
		}
		e.writeLifetimeRef(t.ObjLifetimeOf())
	case hir.TyErasedType:
		e.w.WriteBool(t.ErasedSizedOf())
		traits := t.ErasedTraitsOf()
		e.w.WriteCount(uint32(len(traits)))
		for _, tr := range traits {
			e.writeTraitPath(tr)
		}
		e.writeLifetimeRef(t.ObjLifetimeOf())
		e.writeErasedOrigin(t.ErasedOriginOf())
	case hir.TyArray:
		e.writeType(t.InnerOf())
		e.writeArraySize(t.SizeOf())
	case hir.TySlice:
		e.writeType(t.InnerOf())
	case hir.TyTuple:
		elems := t.ElemsOf()
		e.w.WriteCount(uint32(len(elems)))
		for _, el := range elems {
			e.writeType(el)
		}
	case hir.TyBorrow:
		e.w.WriteU8(uint8(t.BorrowKindOf()))
		e.writeType(t.InnerOf())
		e.writeLifetimeRef(t.ObjLifetimeOf())
	case hir.TyPointer:
		e.w.WriteU8(uint8(t.PointerKindOf()))
		e.writeType(t.InnerOf())
	case hir.TyNamedFunction:
		e.writeSimplePath(t.FnPathOf())
		e.writeSimplePath(t.FnDefOf())
	case hir.TyFunction:
		e.writeFnPtr(t.FnOf())
	case hir.TyClosure:
		e.w.WriteU64c(t.NodeIDOf())
		e.w.WriteU8(uint8(t.ClosureClassOf()))
		e.w.WriteBool(t.ClosureCopyOf())
	case hir.TyGenerator:
		e.w.WriteU64c(t.NodeIDOf())
	}
}

func (d *decoder) readType() hir.TypeRef {
	kind := hir.TypeKind(d.r.ReadU8())
	switch kind {
	case hir.TyInfer:
		class := hir.InferClass(d.r.ReadU8())
		return hir.TInfer(class)
	case hir.TyDiverge:
		return hir.TDiverge()
	case hir.TyPrimitive:
		return hir.TPrimitive(hir.PrimitiveKind(d.r.ReadU8()))
	case hir.TyPath:
		p := d.readPath()
		state := hir.BindingState(d.r.ReadU8())
		binding := hir.TypeBinding{State: state}
		if state != hir.BindingUnbound && state != hir.BindingOpaque {
			binding.Item = d.readSimplePath()
		}
		return hir.TPath(p, binding)
	case hir.TyGeneric:
		return hir.TGeneric(d.readGenericRef())
	case hir.TyTraitObject:
		trait := d.readTraitPath()
		n := d.r.ReadCount()
		markers := make([]hir.TraitPath, n)
		for i := range markers {
			markers[i] = d.readTraitPath()
		}
		lt := d.readLifetimeRef()
		return hir.TTraitObject(trait, markers, lt)
	case hir.TyErasedType:
		sized := d.r.ReadBool()
		n := d.r.ReadCount()
		traits := make([]hir.TraitPath, n)
		for i := range traits {
			traits[i] = d.readTraitPath()
		}
		lt := d.readLifetimeRef()
		origin := d.readErasedOrigin()
		return hir.TErasedType(sized, traits, lt, origin)
	case hir.TyArray:
		inner := d.readType()
		size := d.readArraySize()
		return hir.TArray(inner, size)
	case hir.TySlice:
		return hir.TSlice(d.readType())
	case hir.TyTuple:
		n := d.r.ReadCount()
		elems := make([]hir.TypeRef, n)
		for i := range elems {
			elems[i] = d.readType()
		}
		return hir.TTuple(elems)
	case hir.TyBorrow:
		bk := hir.BorrowKind(d.r.ReadU8())
		inner := d.readType()
		lt := d.readLifetimeRef()
		return hir.TBorrow(bk, inner, lt)
	case hir.TyPointer:
		pk := hir.PointerKind(d.r.ReadU8())
		return hir.TPointer(pk, d.readType())
	case hir.TyNamedFunction:
		path := d.readSimplePath()
		def := d.readSimplePath()
		return hir.TNamedFunction(path, def)
	case hir.TyFunction:
		return hir.TFunction(d.readFnPtr())
	case hir.TyClosure:
		node := d.r.ReadU64c()
		class := hir.ClosureClass(d.r.ReadU8())
		isCopy := d.r.ReadBool()
		return hir.TClosure(node, class, isCopy)
	case hir.TyGenerator:
		return hir.TGenerator(d.r.ReadU64c())
	default:
		panic(diag.Codec(diag.COD402, "unrecognised TypeData variant tag %d", kind))
	}
}

func (e *encoder) writeFnPtr(fn hir.FnPtr) {
	e.w.WriteBool(fn.HRLs != nil)
	if fn.HRLs != nil {
		e.writeGenericParams(fn.HRLs)
	}
	e.w.WriteBool(fn.IsUnsafe)
	e.w.WriteBool(fn.IsVariadic)
	e.w.WriteIStr(fn.ABI)
	e.writeType(fn.Ret)
	e.w.WriteCount(uint32(len(fn.Args)))
	for _, a := range fn.Args {
		e.writeType(a)
	}
}

func (d *decoder) readFnPtr() hir.FnPtr {
	var fn hir.FnPtr
	if d.r.ReadBool() {
		fn.HRLs = d.readGenericParams()
	}
	fn.IsUnsafe = d.r.ReadBool()
	fn.IsVariadic = d.r.ReadBool()
	fn.ABI = d.r.ReadIStr()
	fn.Ret = d.readType()
	n := d.r.ReadCount()
	fn.Args = make([]hir.TypeRef, n)
	for i := range fn.Args {
		fn.Args[i] = d.readType()
	}
	return fn
}

func (e *encoder) writeErasedOrigin(o hir.ErasedOrigin) {
	e.w.WriteU8(uint8(o.Kind))
	switch o.Kind {
	case hir.ErasedFromReturnSlot:
		e.writeSimplePath(o.FnPath)
		e.w.WriteU64c(uint64(o.Index))
	case hir.ErasedFromAlias:
		e.writeSimplePath(o.Alias)
	case hir.ErasedFromKnown:
		e.writeType(o.Known)
	}
}

func (d *decoder) readErasedOrigin() hir.ErasedOrigin {
	kind := hir.ErasedOriginKind(d.r.ReadU8())
	o := hir.ErasedOrigin{Kind: kind}
	switch kind {
	case hir.ErasedFromReturnSlot:
		o.FnPath = d.readSimplePath()
		o.Index = int(d.r.ReadU64c())
	case hir.ErasedFromAlias:
		o.Alias = d.readSimplePath()
	case hir.ErasedFromKnown:
		o.Known = d.readType()
	}
	return o
}

func (e *encoder) writeGenericParams(g *hir.GenericParams) {
	if g == nil {
		e.w.WriteCount(0)
		e.w.WriteCount(0)
		e.w.WriteCount(0)
		e.w.WriteCount(0)
		return
	}
	e.w.WriteCount(uint32(len(g.Types)))
	for _, t := range g.Types {
		e.w.WriteIStr(t.Name)
		e.w.WriteBool(t.Default != nil)
		if t.Default != nil {
			e.writeType(*t.Default)
		}
		e.w.WriteBool(t.IsSized)
	}
	e.w.WriteCount(uint32(len(g.Lifetimes)))
	for _, l := range g.Lifetimes {
		e.w.WriteIStr(l.Name)
	}
	e.w.WriteCount(uint32(len(g.Values)))
	for _, v := range g.Values {
		e.w.WriteIStr(v.Name)
		e.writeType(v.Type)
	}
	e.w.WriteCount(uint32(len(g.Bounds)))
	for _, b := range g.Bounds {
		e.writeGenericBound(b)
	}
}

func (d *decoder) readGenericParams() *hir.GenericParams {
	g := &hir.GenericParams{}
	n := d.r.ReadCount()
	g.Types = make([]hir.TypeParamDef, n)
	for i := range g.Types {
		name := d.r.ReadIStr()
		hasDefault := d.r.ReadBool()
		var def *hir.TypeRef
		if hasDefault {
			t := d.readType()
			def = &t
		}
		isSized := d.r.ReadBool()
		g.Types[i] = hir.TypeParamDef{Name: name, Default: def, IsSized: isSized}
	}
	n = d.r.ReadCount()
	g.Lifetimes = make([]hir.LifetimeDef, n)
	for i := range g.Lifetimes {
		g.Lifetimes[i] = hir.LifetimeDef{Name: d.r.ReadIStr()}
	}
	n = d.r.ReadCount()
	g.Values = make([]hir.ValueParamDef, n)
	for i := range g.Values {
		name := d.r.ReadIStr()
		ty := d.readType()
		g.Values[i] = hir.ValueParamDef{Name: name, Type: ty}
	}
	n = d.r.ReadCount()
	g.Bounds = make([]hir.GenericBound, n)
	for i := range g.Bounds {
		g.Bounds[i] = d.readGenericBound()
	}
	if len(g.Types) == 0 && len(g.Lifetimes) == 0 && len(g.Values) == 0 && len(g.Bounds) == 0 {
		return &hir.GenericParams{}
	}
	return g
}

func (e *encoder) writeGenericBound(b hir.GenericBound) {
	e.w.WriteU8(uint8(b.Kind))
	switch b.Kind {
	case hir.BoundLifetime:
		e.w.WriteIStr(b.LifetimeA)
		e.w.WriteIStr(b.LifetimeB)
	case hir.BoundTypeLifetime:
		e.writeType(b.Type)
		e.w.WriteIStr(b.Lifetime)
	case hir.BoundTrait:
		e.w.WriteBool(b.TraitHRTBs != nil)
		if b.TraitHRTBs != nil {
			e.writeGenericParams(b.TraitHRTBs)
		}
		e.writeType(b.TraitType)
		e.writeTraitPath(b.Trait)
	case hir.BoundTypeEquality:
		e.writeType(b.Type)
		e.writeType(b.Other)
	}
}

func (d *decoder) readGenericBound() hir.GenericBound {
	kind := hir.GenericBoundKind(d.r.ReadU8())
	b := hir.GenericBound{Kind: kind}
	switch kind {
	case hir.BoundLifetime:
		b.LifetimeA = d.r.ReadIStr()
		b.LifetimeB = d.r.ReadIStr()
	case hir.BoundTypeLifetime:
		b.Type = d.readType()
		b.Lifetime = d.r.ReadIStr()
	case hir.BoundTrait:
		if d.r.ReadBool() {
			b.TraitHRTBs = d.readGenericParams()
		}
		b.TraitType = d.readType()
		b.Trait = d.readTraitPath()
	case hir.BoundTypeEquality:
		b.Type = d.readType()
		b.Other = d.readType()
	}
	return b
}

func (e *encoder) writeVisibility(v hir.Visibility) {
	e.w.WriteU8(uint8(v.Kind))
	if v.Kind != hir.VisPublic {
		e.writeSimplePath(v.ModPath)
	}
}

func (d *decoder) readVisibility() hir.Visibility {
	kind := hir.VisibilityKind(d.r.ReadU8())
	v := hir.Visibility{Kind: kind}
	if kind != hir.VisPublic {
		v.ModPath = d.readSimplePath()
	}
	return v
}
