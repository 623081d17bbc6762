package lower

import (
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

// lowerFn translates a surface function, applying §4.3's receiver
// classification and async desugaring. selfTy is the enclosing impl's
// Self type (nil for free functions). MIR bodies are populated by a
// downstream stage outside this pipeline's scope (mirrored in the
// original: HIR lowering builds expression trees, MIR construction is a
// separate later pass) — Body is always left nil here.
func (l *Lowerer) lowerFn(fn *srcast.Fn, modPath hir.SimplePath, selfTy *hir.TypeRef, path []string) *hir.Function {
	if selfTy != nil {
		l.pushSelf(*selfTy)
		defer l.popSelf()
	}

	generics := l.lowerGenerics(fn.Generics, fn.Bounds)

	args := make([]hir.TypeRef, len(fn.Params))
	for i, p := range fn.Params {
		args[i] = l.lowerType(p.Type, path)
	}

	ret := l.lowerType(fn.Ret, path)
	if fn.IsAsync {
		ret, args = l.desugarAsync(ret, args, path)
	}

	receiver := hir.ReceiverFree
	if selfTy != nil && len(args) > 0 {
		receiver = l.classifyReceiver(args[0], *selfTy, path)
	}

	return &hir.Function{
		Receiver:   receiver,
		ABI:        istr.Intern(fn.ABI),
		IsUnsafe:   fn.IsUnsafe,
		IsConst:    fn.IsConst,
		IsVariadic: fn.IsVariadic,
		Params:     generics,
		Args:       args,
		Ret:        ret,
		Linkage:    lowerLinkage(fn.Name, fn.Attrs, fn.IsExtern),
		Body:       nil,
	}
}

// desugarAsync implements §4.3: wrap the body in an async-block node
// (opaque to this data model; the MIR-building stage interprets it) and
// replace the return type with `impl Future<Output = Ret>`.
func (l *Lowerer) desugarAsync(ret hir.TypeRef, args []hir.TypeRef, path []string) (hir.TypeRef, []hir.TypeRef) {
	futurePath := wellKnown(l.crate.Name.Raw(), "future", "Future")
	traitPath := hir.TraitPath{
		Path:       hir.GenericPath{Path: futurePath},
		TypeBounds: map[string]hir.AtyEqual{"Output": {Name: istr.Intern("Output"), Type: ret}},
	}
	erased := hir.TErasedType(true, []hir.TraitPath{traitPath}, hir.LifetimeRef{}, hir.ErasedOrigin{Kind: hir.ErasedFromReturnSlot})
	return erased, args
}

// classifyReceiver implements §4.3's receiver classification: the first
// argument's type is examined against the enclosing impl's Self type.
// Custom additionally requires that, looking recursively through
// path/borrow/pointer wrappers, the receiver eventually reaches Self —
// an error (LOW108) is raised otherwise.
func (l *Lowerer) classifyReceiver(first, self hir.TypeRef, path []string) hir.ReceiverKind {
	if first.Equal(self) {
		return hir.ReceiverValue
	}
	switch first.Kind() {
	case hir.TyBorrow:
		if first.InnerOf().Equal(self) {
			switch first.BorrowKindOf() {
			case hir.BorrowUnique:
				return hir.ReceiverBorrowUnique
			case hir.BorrowOwned:
				return hir.ReceiverBorrowOwned
			}
			return hir.ReceiverBorrowShared
		}
	case hir.TyPath:
		p := first.PathOf()
		if p.Kind == hir.PathGeneric && len(p.Generic.Path.Components) == 1 && p.Generic.Path.Components[0].Raw() == "Box" {
			if len(p.Generic.Params.Types) == 1 && p.Generic.Params.Types[0].Equal(self) {
				return hir.ReceiverBox
			}
		}
	}
	if reachesSelf(first, self) {
		return hir.ReceiverCustom
	}
	l.fail(diag.PhaseLower, diag.LOW108, path, "receiver type %s never reaches Self", first)
	return hir.ReceiverCustom
}

// reachesSelf walks through Path/Borrow/Pointer wrappers looking for the
// impl's Self type (§4.3's Custom-receiver requirement).
func reachesSelf(t, self hir.TypeRef) bool {
	for {
		if t.Equal(self) {
			return true
		}
		switch t.Kind() {
		case hir.TyBorrow, hir.TyPointer:
			t = t.InnerOf()
			continue
		case hir.TyPath:
			p := t.PathOf()
			if p.Kind == hir.PathGeneric && len(p.Generic.Params.Types) == 1 {
				t = p.Generic.Params.Types[0]
				continue
			}
		}
		return false
	}
}

func (l *Lowerer) lowerStruct(dst *hir.Module, it *srcast.Item, vis hir.Visibility, path []string) {
	sd := it.Struct
	data := hir.StructData{}
	switch {
	case sd.IsUnit:
		data.Kind = hir.StructUnit
	case sd.IsTuple:
		data.Kind = hir.StructTuple
		for _, f := range sd.Fields {
			data.TupleFields = append(data.TupleFields, hir.VisEnt[hir.TypeRef]{Vis: lowerVis(srcast.Visibility{Kind: f.Vis}, dst.Path), Item: l.lowerType(f.Type, path)})
		}
	default:
		data.Kind = hir.StructNamed
		for _, f := range sd.Fields {
			data.NamedFields = append(data.NamedFields, hir.NamedField{
				Name: istr.Intern(f.Name),
				Ent:  hir.VisEnt[hir.TypeRef]{Vis: lowerVis(srcast.Visibility{Kind: f.Vis}, dst.Path), Item: l.lowerType(f.Type, path)},
			})
		}
	}

	s := &hir.Struct{
		Params: l.lowerGenerics(sd.Generics, sd.Bounds),
		Repr:   lowerRepr(sd.Repr),
		Data:   data,
	}
	l.applyStructAttrs(s, sd.Attrs, data)
	l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemStruct, Struct: s}, path)
}

func (l *Lowerer) applyStructAttrs(s *hir.Struct, attrs []srcast.Attr, data hir.StructData) {
	var soleField hir.TypeRef
	switch data.Kind {
	case hir.StructTuple:
		if len(data.TupleFields) == 1 {
			soleField = data.TupleFields[0].Item
		}
	case hir.StructNamed:
		if len(data.NamedFields) == 1 {
			soleField = data.NamedFields[0].Ent.Item
		}
	}
	if soleField.IsValid() {
		applyScalarRangeMarkings(&s.StructMarkings, attrs, soleField)
	}
}

func lowerRepr(r string) hir.ReprKind {
	switch r {
	case "C":
		return hir.ReprC
	case "simd":
		return hir.ReprSimd
	case "transparent":
		return hir.ReprTransparent
	default:
		return hir.ReprRust
	}
}

// lowerEnum implements §4.3's enum desugaring: non-unit variant bodies
// become synthetic sibling structs named `EnumName#VariantName`, and the
// enum's own variant record stores only the path to that struct, so
// downstream passes see uniform struct references.
func (l *Lowerer) lowerEnum(dst *hir.Module, it *srcast.Item, vis hir.Visibility, path []string) {
	ed := it.Enum

	hasValueVariants := false
	for _, v := range ed.Variants {
		if v.Kind == srcast.VariantValue {
			hasValueVariants = true
			break
		}
	}

	class := hir.EnumClass{}
	if hasValueVariants {
		class.Kind = hir.EnumClassValue
		class.ValueRepr = lowerEnumRepr(ed.Repr)
		for _, v := range ed.Variants {
			class.Values = append(class.Values, hir.EnumValueVariant{Name: istr.Intern(v.Name), Expr: exprHandle(v.Value)})
		}
	} else {
		class.Kind = hir.EnumClassData
		for _, v := range ed.Variants {
			synthName := it.Name + "#" + v.Name
			isStruct := v.Kind == srcast.VariantStruct
			synthPath := dst.Path.Push(istr.Intern(synthName))

			synthStruct := &hir.Struct{Params: l.lowerGenerics(ed.Generics, ed.Bounds)}
			if isStruct {
				synthStruct.Data.Kind = hir.StructNamed
				for _, f := range v.Fields {
					synthStruct.Data.NamedFields = append(synthStruct.Data.NamedFields, hir.NamedField{
						Name: istr.Intern(f.Name),
						Ent:  hir.VisEnt[hir.TypeRef]{Vis: hir.Visibility{Kind: hir.VisPublic}, Item: l.lowerType(f.Type, path)},
					})
				}
			} else if v.Kind == srcast.VariantTuple {
				synthStruct.Data.Kind = hir.StructTuple
				for _, f := range v.Fields {
					synthStruct.Data.TupleFields = append(synthStruct.Data.TupleFields, hir.VisEnt[hir.TypeRef]{Vis: hir.Visibility{Kind: hir.VisPublic}, Item: l.lowerType(f.Type, path)})
				}
			} else {
				synthStruct.Data.Kind = hir.StructUnit
			}

			l.insertType(dst, synthName, hir.Visibility{Kind: hir.VisPublic}, hir.TypeItem{Kind: hir.TypeItemStruct, Struct: synthStruct}, path)

			class.DataVariants = append(class.DataVariants, hir.EnumVariant{
				Name:     istr.Intern(v.Name),
				IsStruct: isStruct,
				Type:     synthPath,
			})
		}
	}

	e := &hir.Enum{Params: l.lowerGenerics(ed.Generics, ed.Bounds), Class: class}
	l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemEnum, Enum: e}, path)
}

func exprHandle(e *srcast.Expr) uint64 {
	if e == nil {
		return 0
	}
	if e.Kind == srcast.ExprIntLit {
		return e.IntValue
	}
	return e.OpaqueID
}

func lowerEnumRepr(r string) hir.EnumReprKind {
	switch r {
	case "isize":
		return hir.EnumReprISize
	case "usize":
		return hir.EnumReprUSize
	case "i8":
		return hir.EnumReprI8
	case "i16":
		return hir.EnumReprI16
	case "i32":
		return hir.EnumReprI32
	case "i64":
		return hir.EnumReprI64
	case "u8":
		return hir.EnumReprU8
	case "u16":
		return hir.EnumReprU16
	case "u32":
		return hir.EnumReprU32
	case "u64":
		return hir.EnumReprU64
	default:
		return hir.EnumReprAuto
	}
}

func (l *Lowerer) lowerUnion(u *srcast.UnionDef, path []string) *hir.Union {
	out := &hir.Union{Params: l.lowerGenerics(u.Generics, nil), Repr: lowerRepr(u.Repr)}
	for _, f := range u.Fields {
		out.Fields = append(out.Fields, hir.NamedField{Name: istr.Intern(f.Name), Ent: hir.VisEnt[hir.TypeRef]{Item: l.lowerType(f.Type, path)}})
	}
	return out
}

func (l *Lowerer) lowerTrait(td *srcast.TraitDef, modPath hir.SimplePath, path []string) *hir.Trait {
	wasInTrait := l.inTrait
	l.inTrait = true
	defer func() { l.inTrait = wasInTrait }()

	tr := &hir.Trait{
		Params:       l.lowerGenerics(td.Generics, td.Bounds),
		IsMarker:     td.IsMarker,
		IsUnsafe:     td.IsUnsafe,
		Items:        make(map[string]hir.TraitItem),
		ParentTraits: l.lowerTraitPathList(td.ParentTraits),
		ValueIndexes: make(map[string]int),
		TypeIndexes:  make(map[string]int),
	}
	i := 0
	for name, item := range td.Items {
		tr.Items[name] = l.lowerTraitItem(item, path)
		if item.Kind == srcast.ItemFunction || item.Kind == srcast.ItemConstant {
			tr.ValueIndexes[name] = i
		} else {
			tr.TypeIndexes[name] = i
		}
		i++
	}
	return tr
}

func (l *Lowerer) lowerTraitItem(ti *srcast.TraitItem, path []string) hir.TraitItem {
	switch {
	case ti.Fn != nil:
		return hir.TraitItem{Kind: hir.TraitItemFunction, Function: l.lowerFn(ti.Fn, hir.SimplePath{}, nil, path)}
	case ti.IsAtyOnly:
		var def *hir.TypeRef
		if ti.AtyDefault != nil {
			t := l.lowerType(ti.AtyDefault, path)
			def = &t
		}
		return hir.TraitItem{Kind: hir.TraitItemType, AtyDefault: def, AtyBounds: l.lowerTraitPathList(ti.AtyBounds)}
	default:
		return hir.TraitItem{
			Kind: hir.TraitItemConstant,
			Constant: &hir.Constant{
				Type:       l.lowerType(ti.ConstType, path),
				ValueState: hir.ValueUnknown,
			},
		}
	}
}

func (l *Lowerer) lowerTypeAlias(name string, ta *srcast.TypeAliasDef, modPath hir.SimplePath, path []string) *hir.TypeAlias {
	prevITS := l.its
	l.its = implTraitSource{active: true, path: modPath.Push(istr.Intern(name))}
	defer func() { l.its = prevITS }()

	return &hir.TypeAlias{
		Params: l.lowerGenerics(ta.Generics, nil),
		Target: l.lowerType(ta.Target, path),
	}
}

func (l *Lowerer) lowerConst(cd *srcast.ConstDef, path []string) *hir.Constant {
	return &hir.Constant{
		Params:     l.lowerGenerics(cd.Generics, nil),
		Type:       l.lowerType(cd.Type, path),
		ValueState: hir.ValueUnknown,
	}
}

func (l *Lowerer) lowerStatic(sd *srcast.StaticDef, attrs []srcast.Attr, path []string) *hir.Static {
	return &hir.Static{
		Type:    l.lowerType(sd.Type, path),
		IsMut:   sd.IsMut,
		Linkage: lowerLinkage(sd.Name, attrs, sd.IsExtern),
	}
}

func (l *Lowerer) lowerTypeImpl(id *srcast.ImplDef, path []string) {
	selfTy := l.lowerType(id.Self, path)
	l.pushSelf(selfTy)
	defer l.popSelf()

	items := make(map[string]hir.TraitItem)
	for name, it := range id.Items {
		items[name] = l.lowerTraitItem(it, path)
	}
	impl := &hir.TypeImpl{
		Params:     l.lowerGenerics(id.Generics, id.Bounds),
		Type:       selfTy,
		Items:      items,
		IsNegative: id.IsNegative,
	}
	l.crate.AddTypeImpl(impl)
}

func (l *Lowerer) lowerTraitImpl(id *srcast.ImplDef, path []string) {
	selfTy := l.lowerType(id.Self, path)
	l.pushSelf(selfTy)
	defer l.popSelf()

	items := make(map[string]hir.TraitItem)
	for name, it := range id.Items {
		items[name] = l.lowerTraitItem(it, path)
	}
	var traitArgs []hir.TypeRef
	for _, a := range id.TraitArgs {
		traitArgs = append(traitArgs, l.lowerType(a, path))
	}
	traitSP := toSimplePath(id.Trait.Segments)
	impl := &hir.TraitImpl{
		Params:          l.lowerGenerics(id.Generics, id.Bounds),
		TraitPath:       hir.GenericPath{Path: traitSP, Params: hir.PathParams{Types: traitArgs}},
		Type:            selfTy,
		Items:           items,
		IsNegative:      id.IsNegative,
		IsSpecialisable: id.IsSpecialisable,
	}
	l.crate.AddTraitImpl(traitSP, impl)
}
