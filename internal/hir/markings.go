package hir

// AutoImplState caches whether an auto-trait destructuring search (§4.6)
// succeeded, and under what field-level conditions.
type AutoImplState struct {
	Conditions []TypeRef // the types that would need to satisfy the trait
	IsImpled   bool
}

// TraitMarkings is the per-struct/enum cache described in §3.6: fast
// rejects for Deref/Copy/Drop plus a memoised auto-trait table so the
// resolver's marker-trait queries (§4.5 step 6, §4.6) don't re-walk
// fields on every call.
type TraitMarkings struct {
	HasADeref    bool
	IsCopy       bool
	HasDropImpl  bool
	AutoImpls    map[string]AutoImplState // trait name -> cached result
}

// DstTypeKind tags StructMarkings.DstType (§3.6).
type DstTypeKind uint8

const (
	DstNone DstTypeKind = iota
	DstPossible
	DstSlice
	DstTraitObject
)

// CoerceUnsizedKind tags StructMarkings.CoerceUnsized (§3.6).
type CoerceUnsizedKind uint8

const (
	CoerceNone CoerceUnsizedKind = iota
	CoercePassthrough
	CoercePointer
)

// StructMarkings answers Unsize/coercion queries without touching the
// trait-impl table (§3.6, §4.5 step "Unsize" case (d)).
type StructMarkings struct {
	CanUnsize       bool
	UnsizedParam    int // index into the struct's type params, -1 if none
	UnsizedField    int // index of the tail field providing the DST, -1 if none
	DstType         DstTypeKind
	CoerceUnsized   CoerceUnsizedKind
	CoerceUnsizedIdx int
	CoerceParam      int
	IsNonzero        bool
	BoundedMax       bool
	BoundedMaxValue  uint64
}
