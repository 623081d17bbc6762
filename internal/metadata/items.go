package metadata

import (
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
)

func (e *encoder) writeVisEntValue(ve hir.VisEnt[hir.ValueItem]) {
	e.writeVisibility(ve.Vis)
	e.writeValueItem(ve.Item)
}

func (d *decoder) readVisEntValue() hir.VisEnt[hir.ValueItem] {
	vis := d.readVisibility()
	item := d.readValueItem()
	return hir.VisEnt[hir.ValueItem]{Vis: vis, Item: item}
}

func (e *encoder) writeVisEntType(ve hir.VisEnt[hir.TypeItem]) {
	e.writeVisibility(ve.Vis)
	e.writeTypeItem(ve.Item)
}

func (d *decoder) readVisEntType() hir.VisEnt[hir.TypeItem] {
	vis := d.readVisibility()
	item := d.readTypeItem()
	return hir.VisEnt[hir.TypeItem]{Vis: vis, Item: item}
}

func (e *encoder) writeVisEntTypeRef(ve hir.VisEnt[hir.TypeRef]) {
	e.writeVisibility(ve.Vis)
	e.writeType(ve.Item)
}

func (d *decoder) readVisEntTypeRef() hir.VisEnt[hir.TypeRef] {
	vis := d.readVisibility()
	ty := d.readType()
	return hir.VisEnt[hir.TypeRef]{Vis: vis, Item: ty}
}

func (e *encoder) writeImportEnt(im *hir.ImportEnt) {
	e.writeSimplePath(im.Target)
	e.w.WriteBool(im.IsVariant)
	e.w.WriteU64c(uint64(im.Idx))
}

func (d *decoder) readImportEnt() *hir.ImportEnt {
	target := d.readSimplePath()
	isVariant := d.r.ReadBool()
	idx := uint32(d.r.ReadU64c())
	return &hir.ImportEnt{Target: target, IsVariant: isVariant, Idx: idx}
}

// writeTypeItem tags per §6.1: {0:Import, 1:Module, 2:TypeAlias, 3:Enum,
// 4:Struct, 5:Trait, 6:Union} plus two pack-local extensions (TraitAlias,
// ExternType) that the distilled tag table omits but §3.4 requires.
func (e *encoder) writeTypeItem(it hir.TypeItem) {
	e.w.WriteU8(uint8(it.Kind))
	switch it.Kind {
	case hir.TypeItemImport:
		e.writeImportEnt(it.Import)
	case hir.TypeItemModule:
		e.writeModule(it.Module)
	case hir.TypeItemTypeAlias:
		e.writeTypeAlias(*it.TypeAlias)
	case hir.TypeItemEnum:
		e.writeEnum(*it.Enum)
	case hir.TypeItemStruct:
		e.writeStruct(*it.Struct)
	case hir.TypeItemTrait:
		e.writeTrait(*it.Trait)
	case hir.TypeItemUnion:
		e.writeUnion(*it.Union)
	case hir.TypeItemTraitAlias:
		e.writeTraitAlias(*it.TraitAlias)
	case hir.TypeItemExternType:
		e.w.WriteIStr(it.ExternType.ABI)
	default:
		panic(diag.Internal(diag.COD405, nil, "unrecognised TypeItem kind %d", it.Kind))
	}
}

func (d *decoder) readTypeItem() hir.TypeItem {
	kind := hir.TypeItemKind(d.r.ReadU8())
	it := hir.TypeItem{Kind: kind}
	switch kind {
	case hir.TypeItemImport:
		it.Import = d.readImportEnt()
	case hir.TypeItemModule:
		it.Module = d.readModule()
	case hir.TypeItemTypeAlias:
		ta := d.readTypeAlias()
		it.TypeAlias = &ta
	case hir.TypeItemEnum:
		en := d.readEnum()
		it.Enum = &en
	case hir.TypeItemStruct:
		s := d.readStruct()
		it.Struct = &s
	case hir.TypeItemTrait:
		t := d.readTrait()
		it.Trait = &t
	case hir.TypeItemUnion:
		u := d.readUnion()
		it.Union = &u
	case hir.TypeItemTraitAlias:
		ta := d.readTraitAlias()
		it.TraitAlias = &ta
	case hir.TypeItemExternType:
		it.ExternType = &hir.ExternType{ABI: d.r.ReadIStr()}
	default:
		panic(diag.Codec(diag.COD405, "unrecognised TypeItem variant tag %d", kind))
	}
	return it
}

// writeValueItem tags per §6.1: {0:Import, 1:Constant, 2:Static,
// 3:StructConstant, 4:Function, 5:StructConstructor}.
func (e *encoder) writeValueItem(it hir.ValueItem) {
	e.w.WriteU8(uint8(it.Kind))
	switch it.Kind {
	case hir.ValueItemImport:
		e.writeImportEnt(it.Import)
	case hir.ValueItemConstant:
		e.writeConstant(*it.Constant)
	case hir.ValueItemStatic:
		e.writeStatic(*it.Static)
	case hir.ValueItemStructConstant:
		e.writeSimplePath(*it.StructConstant)
	case hir.ValueItemFunction:
		e.writeFunction(*it.Function)
	case hir.ValueItemStructConstructor:
		e.writeSimplePath(*it.StructConstructor)
	default:
		panic(diag.Internal(diag.COD405, nil, "unrecognised ValueItem kind %d", it.Kind))
	}
}

func (d *decoder) readValueItem() hir.ValueItem {
	kind := hir.ValueItemKind(d.r.ReadU8())
	it := hir.ValueItem{Kind: kind}
	switch kind {
	case hir.ValueItemImport:
		it.Import = d.readImportEnt()
	case hir.ValueItemConstant:
		c := d.readConstant()
		it.Constant = &c
	case hir.ValueItemStatic:
		s := d.readStatic()
		it.Static = &s
	case hir.ValueItemStructConstant:
		p := d.readSimplePath()
		it.StructConstant = &p
	case hir.ValueItemFunction:
		f := d.readFunction()
		it.Function = &f
	case hir.ValueItemStructConstructor:
		p := d.readSimplePath()
		it.StructConstructor = &p
	default:
		panic(diag.Codec(diag.COD405, "unrecognised ValueItem variant tag %d", kind))
	}
	return it
}

// writeModule serialises §6.1.1: value_items then mod_items, both sorted
// by key so the byte stream is deterministic across runs (§8, "codec
// round-trip").
func (e *encoder) writeModule(m *hir.Module) {
	e.writeSimplePath(m.Path)
	keys := sortedKeys(m.ValueItems)
	e.w.WriteCount(uint32(len(keys)))
	for _, k := range keys {
		e.w.WriteString(k)
		e.writeVisEntValue(m.ValueItems[k])
	}
	mkeys := sortedKeysT(m.ModItems)
	e.w.WriteCount(uint32(len(mkeys)))
	for _, k := range mkeys {
		e.w.WriteString(k)
		e.writeVisEntType(m.ModItems[k])
	}
}

func (d *decoder) readModule() *hir.Module {
	path := d.readSimplePath()
	m := hir.NewModule(path)
	n := d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		k := d.r.ReadString()
		m.ValueItems[k] = d.readVisEntValue()
	}
	n = d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		k := d.r.ReadString()
		m.ModItems[k] = d.readVisEntType()
	}
	return m
}

func sortedKeys(m map[string]hir.VisEnt[hir.ValueItem]) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

func sortedKeysT(m map[string]hir.VisEnt[hir.TypeItem]) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (e *encoder) writeStructData(sd hir.StructData) {
	e.w.WriteU8(uint8(sd.Kind))
	switch sd.Kind {
	case hir.StructTuple:
		e.w.WriteCount(uint32(len(sd.TupleFields)))
		for _, f := range sd.TupleFields {
			e.writeVisEntTypeRef(f)
		}
	case hir.StructNamed:
		e.w.WriteCount(uint32(len(sd.NamedFields)))
		for _, f := range sd.NamedFields {
			e.w.WriteIStr(f.Name)
			e.writeVisEntTypeRef(f.Ent)
		}
	}
}

func (d *decoder) readStructData() hir.StructData {
	kind := hir.StructDataKind(d.r.ReadU8())
	sd := hir.StructData{Kind: kind}
	switch kind {
	case hir.StructTuple:
		n := d.r.ReadCount()
		sd.TupleFields = make([]hir.VisEnt[hir.TypeRef], n)
		for i := range sd.TupleFields {
			sd.TupleFields[i] = d.readVisEntTypeRef()
		}
	case hir.StructNamed:
		n := d.r.ReadCount()
		sd.NamedFields = make([]hir.NamedField, n)
		for i := range sd.NamedFields {
			name := d.r.ReadIStr()
			ent := d.readVisEntTypeRef()
			sd.NamedFields[i] = hir.NamedField{Name: name, Ent: ent}
		}
	}
	return sd
}

func (e *encoder) writeOptU64(v *uint64) {
	e.w.WriteBool(v != nil)
	if v != nil {
		e.w.WriteU64c(*v)
	}
}

func (d *decoder) readOptU64() *uint64 {
	if !d.r.ReadBool() {
		return nil
	}
	v := d.r.ReadU64c()
	return &v
}

func (e *encoder) writeStruct(s hir.Struct) {
	e.writeGenericParams(&s.Params)
	e.w.WriteU8(uint8(s.Repr))
	e.writeStructData(s.Data)
	e.writeOptU64(s.ForcedAlignment)
	e.writeOptU64(s.MaxFieldAlignment)
	e.writeTraitMarkings(s.Markings)
	e.writeStructMarkings(s.StructMarkings)
}

func (d *decoder) readStruct() hir.Struct {
	var s hir.Struct
	params := d.readGenericParams()
	s.Params = *params
	s.Repr = hir.ReprKind(d.r.ReadU8())
	s.Data = d.readStructData()
	s.ForcedAlignment = d.readOptU64()
	s.MaxFieldAlignment = d.readOptU64()
	s.Markings = d.readTraitMarkings()
	s.StructMarkings = d.readStructMarkings()
	return s
}

func (e *encoder) writeTraitMarkings(m hir.TraitMarkings) {
	e.w.WriteBool(m.HasADeref)
	e.w.WriteBool(m.IsCopy)
	e.w.WriteBool(m.HasDropImpl)
	e.w.WriteCount(uint32(len(m.AutoImpls)))
	keys := make([]string, 0, len(m.AutoImpls))
	for k := range m.AutoImpls {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		st := m.AutoImpls[k]
		e.w.WriteString(k)
		e.w.WriteBool(st.IsImpled)
		e.w.WriteCount(uint32(len(st.Conditions)))
		for _, c := range st.Conditions {
			e.writeType(c)
		}
	}
}

func (d *decoder) readTraitMarkings() hir.TraitMarkings {
	var m hir.TraitMarkings
	m.HasADeref = d.r.ReadBool()
	m.IsCopy = d.r.ReadBool()
	m.HasDropImpl = d.r.ReadBool()
	n := d.r.ReadCount()
	if n > 0 {
		m.AutoImpls = make(map[string]hir.AutoImplState, n)
		for i := uint32(0); i < n; i++ {
			k := d.r.ReadString()
			var st hir.AutoImplState
			st.IsImpled = d.r.ReadBool()
			cn := d.r.ReadCount()
			st.Conditions = make([]hir.TypeRef, cn)
			for j := range st.Conditions {
				st.Conditions[j] = d.readType()
			}
			m.AutoImpls[k] = st
		}
	}
	return m
}

func (e *encoder) writeStructMarkings(m hir.StructMarkings) {
	e.w.WriteBool(m.CanUnsize)
	e.w.WriteI64c(int64(m.UnsizedParam))
	e.w.WriteI64c(int64(m.UnsizedField))
	e.w.WriteU8(uint8(m.DstType))
	e.w.WriteU8(uint8(m.CoerceUnsized))
	e.w.WriteI64c(int64(m.CoerceUnsizedIdx))
	e.w.WriteI64c(int64(m.CoerceParam))
	e.w.WriteBool(m.IsNonzero)
	e.w.WriteBool(m.BoundedMax)
	e.w.WriteU64c(m.BoundedMaxValue)
}

func (d *decoder) readStructMarkings() hir.StructMarkings {
	var m hir.StructMarkings
	m.CanUnsize = d.r.ReadBool()
	m.UnsizedParam = int(d.r.ReadI64c())
	m.UnsizedField = int(d.r.ReadI64c())
	m.DstType = hir.DstTypeKind(d.r.ReadU8())
	m.CoerceUnsized = hir.CoerceUnsizedKind(d.r.ReadU8())
	m.CoerceUnsizedIdx = int(d.r.ReadI64c())
	m.CoerceParam = int(d.r.ReadI64c())
	m.IsNonzero = d.r.ReadBool()
	m.BoundedMax = d.r.ReadBool()
	m.BoundedMaxValue = d.r.ReadU64c()
	return m
}

func (e *encoder) writeEnum(en hir.Enum) {
	e.writeGenericParams(&en.Params)
	e.w.WriteU8(uint8(en.Class.Kind))
	switch en.Class.Kind {
	case hir.EnumClassData:
		e.w.WriteCount(uint32(len(en.Class.DataVariants)))
		for _, v := range en.Class.DataVariants {
			e.w.WriteIStr(v.Name)
			e.w.WriteBool(v.IsStruct)
			e.writeSimplePath(v.Type)
		}
	case hir.EnumClassValue:
		e.w.WriteU8(uint8(en.Class.ValueRepr))
		e.w.WriteCount(uint32(len(en.Class.Values)))
		for _, v := range en.Class.Values {
			e.w.WriteIStr(v.Name)
			e.w.WriteU64c(v.Expr)
			e.w.WriteI64c(v.Val)
		}
	}
}

func (d *decoder) readEnum() hir.Enum {
	var en hir.Enum
	en.Params = *d.readGenericParams()
	en.Class.Kind = hir.EnumClassKind(d.r.ReadU8())
	switch en.Class.Kind {
	case hir.EnumClassData:
		n := d.r.ReadCount()
		en.Class.DataVariants = make([]hir.EnumVariant, n)
		for i := range en.Class.DataVariants {
			name := d.r.ReadIStr()
			isStruct := d.r.ReadBool()
			ty := d.readSimplePath()
			en.Class.DataVariants[i] = hir.EnumVariant{Name: name, IsStruct: isStruct, Type: ty}
		}
	case hir.EnumClassValue:
		en.Class.ValueRepr = hir.EnumReprKind(d.r.ReadU8())
		n := d.r.ReadCount()
		en.Class.Values = make([]hir.EnumValueVariant, n)
		for i := range en.Class.Values {
			name := d.r.ReadIStr()
			expr := d.r.ReadU64c()
			val := d.r.ReadI64c()
			en.Class.Values[i] = hir.EnumValueVariant{Name: name, Expr: expr, Val: val}
		}
	}
	return en
}

func (e *encoder) writeUnion(u hir.Union) {
	e.writeGenericParams(&u.Params)
	e.w.WriteCount(uint32(len(u.Fields)))
	for _, f := range u.Fields {
		e.w.WriteIStr(f.Name)
		e.writeVisEntTypeRef(f.Ent)
	}
	e.w.WriteU8(uint8(u.Repr))
}

func (d *decoder) readUnion() hir.Union {
	var u hir.Union
	u.Params = *d.readGenericParams()
	n := d.r.ReadCount()
	u.Fields = make([]hir.NamedField, n)
	for i := range u.Fields {
		name := d.r.ReadIStr()
		ent := d.readVisEntTypeRef()
		u.Fields[i] = hir.NamedField{Name: name, Ent: ent}
	}
	u.Repr = hir.ReprKind(d.r.ReadU8())
	return u
}

func (e *encoder) writeTypeAlias(ta hir.TypeAlias) {
	e.writeGenericParams(&ta.Params)
	e.writeType(ta.Target)
}

func (d *decoder) readTypeAlias() hir.TypeAlias {
	var ta hir.TypeAlias
	ta.Params = *d.readGenericParams()
	ta.Target = d.readType()
	return ta
}

func (e *encoder) writeTraitAlias(ta hir.TraitAlias) {
	e.writeGenericParams(&ta.Params)
	e.w.WriteCount(uint32(len(ta.Traits)))
	for _, t := range ta.Traits {
		e.writeTraitPath(t)
	}
}

func (d *decoder) readTraitAlias() hir.TraitAlias {
	var ta hir.TraitAlias
	ta.Params = *d.readGenericParams()
	n := d.r.ReadCount()
	ta.Traits = make([]hir.TraitPath, n)
	for i := range ta.Traits {
		ta.Traits[i] = d.readTraitPath()
	}
	return ta
}

func (e *encoder) writeTraitItem(ti hir.TraitItem) {
	e.w.WriteU8(uint8(ti.Kind))
	switch ti.Kind {
	case hir.TraitItemFunction:
		e.writeFunction(*ti.Function)
	case hir.TraitItemConstant:
		e.writeConstant(*ti.Constant)
	case hir.TraitItemType:
		e.w.WriteBool(ti.AtyDefault != nil)
		if ti.AtyDefault != nil {
			e.writeType(*ti.AtyDefault)
		}
		e.w.WriteCount(uint32(len(ti.AtyBounds)))
		for _, b := range ti.AtyBounds {
			e.writeTraitPath(b)
		}
	}
}

func (d *decoder) readTraitItem() hir.TraitItem {
	kind := hir.TraitItemKind(d.r.ReadU8())
	ti := hir.TraitItem{Kind: kind}
	switch kind {
	case hir.TraitItemFunction:
		f := d.readFunction()
		ti.Function = &f
	case hir.TraitItemConstant:
		c := d.readConstant()
		ti.Constant = &c
	case hir.TraitItemType:
		if d.r.ReadBool() {
			t := d.readType()
			ti.AtyDefault = &t
		}
		n := d.r.ReadCount()
		ti.AtyBounds = make([]hir.TraitPath, n)
		for i := range ti.AtyBounds {
			ti.AtyBounds[i] = d.readTraitPath()
		}
	}
	return ti
}

func (e *encoder) writeTraitItemMap(m map[string]hir.TraitItem) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	e.w.WriteCount(uint32(len(keys)))
	for _, k := range keys {
		e.w.WriteString(k)
		e.writeTraitItem(m[k])
	}
}

func (d *decoder) readTraitItemMap() map[string]hir.TraitItem {
	n := d.r.ReadCount()
	m := make(map[string]hir.TraitItem, n)
	for i := uint32(0); i < n; i++ {
		k := d.r.ReadString()
		m[k] = d.readTraitItem()
	}
	return m
}

func (e *encoder) writeTrait(t hir.Trait) {
	e.writeGenericParams(&t.Params)
	e.w.WriteBool(t.IsMarker)
	e.w.WriteBool(t.IsUnsafe)
	e.writeTraitItemMap(t.Items)
	e.w.WriteCount(uint32(len(t.ParentTraits)))
	for _, p := range t.ParentTraits {
		e.writeTraitPath(p)
	}
	e.writeSimplePath(t.VtablePath)
}

func (d *decoder) readTrait() hir.Trait {
	var t hir.Trait
	t.Params = *d.readGenericParams()
	t.IsMarker = d.r.ReadBool()
	t.IsUnsafe = d.r.ReadBool()
	t.Items = d.readTraitItemMap()
	n := d.r.ReadCount()
	t.ParentTraits = make([]hir.TraitPath, n)
	for i := range t.ParentTraits {
		t.ParentTraits[i] = d.readTraitPath()
	}
	t.VtablePath = d.readSimplePath()
	return t
}

func (e *encoder) writeFunction(f hir.Function) {
	e.w.WriteU8(uint8(f.Receiver))
	e.w.WriteIStr(f.ABI)
	e.w.WriteBool(f.IsUnsafe)
	e.w.WriteBool(f.IsConst)
	e.writeGenericParams(&f.Params)
	e.w.WriteCount(uint32(len(f.Args)))
	for _, a := range f.Args {
		e.writeType(a)
	}
	e.w.WriteBool(f.IsVariadic)
	e.writeType(f.Ret)
	e.w.WriteIStr(f.Linkage.Name)
	e.w.WriteBool(f.Body != nil)
	if f.Body != nil {
		e.writeMIRFunction(*f.Body)
	}
}

func (d *decoder) readFunction() hir.Function {
	var f hir.Function
	f.Receiver = hir.ReceiverKind(d.r.ReadU8())
	f.ABI = d.r.ReadIStr()
	f.IsUnsafe = d.r.ReadBool()
	f.IsConst = d.r.ReadBool()
	f.Params = *d.readGenericParams()
	n := d.r.ReadCount()
	f.Args = make([]hir.TypeRef, n)
	for i := range f.Args {
		f.Args[i] = d.readType()
	}
	f.IsVariadic = d.r.ReadBool()
	f.Ret = d.readType()
	f.Linkage = hir.Linkage{Name: d.r.ReadIStr()}
	if d.r.ReadBool() {
		body := d.readMIRFunction()
		f.Body = &body
	}
	return f
}

func (e *encoder) writeConstant(c hir.Constant) {
	e.writeGenericParams(&c.Params)
	e.writeType(c.Type)
	e.w.WriteBool(c.Body != nil)
	if c.Body != nil {
		e.writeMIRFunction(*c.Body)
	}
	e.w.WriteU8(uint8(c.ValueState))
	e.writeEncodedLiteral(c.ValueRes)
}

func (d *decoder) readConstant() hir.Constant {
	var c hir.Constant
	c.Params = *d.readGenericParams()
	c.Type = d.readType()
	if d.r.ReadBool() {
		body := d.readMIRFunction()
		c.Body = &body
	}
	c.ValueState = hir.ValueState(d.r.ReadU8())
	c.ValueRes = d.readEncodedLiteral()
	return c
}

func (e *encoder) writeStatic(s hir.Static) {
	e.writeType(s.Type)
	e.w.WriteBool(s.IsMut)
	e.w.WriteIStr(s.Linkage.Name)
	e.w.WriteBool(s.Body != nil)
	if s.Body != nil {
		e.writeMIRFunction(*s.Body)
	}
}

func (d *decoder) readStatic() hir.Static {
	var s hir.Static
	s.Type = d.readType()
	s.IsMut = d.r.ReadBool()
	s.Linkage = hir.Linkage{Name: d.r.ReadIStr()}
	if d.r.ReadBool() {
		body := d.readMIRFunction()
		s.Body = &body
	}
	return s
}

func (e *encoder) writeTypeImpl(t hir.TypeImpl) {
	e.writeGenericParams(&t.Params)
	e.writeType(t.Type)
	e.writeTraitItemMap(t.Items)
	e.w.WriteBool(t.IsNegative)
}

func (d *decoder) readTypeImpl() hir.TypeImpl {
	var t hir.TypeImpl
	t.Params = *d.readGenericParams()
	t.Type = d.readType()
	t.Items = d.readTraitItemMap()
	t.IsNegative = d.r.ReadBool()
	return t
}

func (e *encoder) writeTraitImpl(t hir.TraitImpl) {
	e.writeGenericParams(&t.Params)
	e.writeGenericPath(t.TraitPath)
	e.writeType(t.Type)
	e.writeTraitItemMap(t.Items)
	e.w.WriteBool(t.IsNegative)
	e.w.WriteBool(t.IsSpecialisable)
}

func (d *decoder) readTraitImpl() hir.TraitImpl {
	var t hir.TraitImpl
	t.Params = *d.readGenericParams()
	t.TraitPath = d.readGenericPath()
	t.Type = d.readType()
	t.Items = d.readTraitItemMap()
	t.IsNegative = d.r.ReadBool()
	t.IsSpecialisable = d.r.ReadBool()
	return t
}

func (e *encoder) writeMarkerImpl(m hir.MarkerImpl) {
	e.writeGenericParams(&m.Params)
	e.writeType(m.Type)
}

func (d *decoder) readMarkerImpl() hir.MarkerImpl {
	var m hir.MarkerImpl
	m.Params = *d.readGenericParams()
	m.Type = d.readType()
	return m
}
