package hir

import (
	"sort"
	"sync"

	"github.com/sunholo/hirgo/internal/istr"
)

// MacroRules is an opaque, already-expanded token stream for an
// exported macro (§4.3's final lowering step re-expands interpolated
// tokens so this is plain text, never an AST pointer).
type MacroRules struct {
	Name   istr.IStr
	Tokens []string
}

// ExternLibrary names a native library to link against (§6.1, item 9).
type ExternLibrary struct {
	Name string
}

// ProcMacro describes a procedural macro exported by a crate (§6.1, item
// 11). Its implementation is owned by the external codegen/driver
// collaborator; only its identity is tracked here.
type ProcMacro struct {
	Name     istr.IStr
	Fn       SimplePath
	Variant  string
}

// ExternCrateRef is one entry of Crate.ExtCrates (§6.1, item 8): loads
// are re-resolved by the driver, so only the names travel in metadata.
type ExternCrateRef struct {
	Name     istr.IStr
	Basename istr.IStr
}

// implGroupKey buckets impls by the sort-path of the impl's Self type
// (§3.8, §4.9), plus two catch-all buckets for primitives and generics.
type implGroupKey string

const (
	primitiveBucket implGroupKey = "#primitive"
	genericBucket   implGroupKey = "#generic"
)

// Crate is the root owner described in §3.8. It is constructed either by
// lowering (internal/lower) or by deserialisation (internal/metadata),
// then mutated by the index and post-load passes, and is thereafter
// immutable except for cache fields.
type Crate struct {
	Name       istr.IStr
	RootModule *Module

	// BuildID is a per-build identifier embedded in the metadata file
	// header (§6.1, §12's supplemented feature grounded on
	// crate_ptr.cpp/.hpp): it lets tooling tell apart two .meta files
	// compiled from identical sources but different builds without
	// reparsing either. Left empty until a lowering pass or the codec's
	// writer assigns one; never compared by HIR structural equality.
	BuildID string

	// typeImplsByKey groups inherent impls by their Self type's bucket key.
	typeImplsByKey map[implGroupKey][]*TypeImpl
	AllTypeImpls   []*TypeImpl

	// TraitImpls is keyed by trait SimplePath, then bucketed internally
	// by Self-type key for the sublinear search of §4.9's "impl groups".
	TraitImpls map[string]*traitImplBucket

	MarkerImpls     map[string][]*MarkerImpl // trait name -> impls
	markerImplPaths map[string]SimplePath    // trait name -> trait SimplePath, for AllMarkerImplPairs

	LangItems   map[string]SimplePath
	ExtCrates   []ExternCrateRef
	ExtLibs     []ExternLibrary
	ExportedMacros map[string]MacroRules
	LinkPaths   []string
	ProcMacros  []ProcMacro

	// traitTable is the flat table TraitPath.TraitPtr indexes into,
	// replacing the raw back-reference (§9, "Cyclic back-references").
	// Populated by the post-load pass; never serialised.
	traitTable []*Trait
	traitByPath map[string]TraitHandle

	// Caches — write-once-then-read or keyed by immutable input (§5).
	cacheMu          sync.Mutex
	allParentsCache  map[string][]TraitPath
	copyCache        map[uint64]triBool
	cloneCache       map[uint64]triBool
	inherentMethodCache map[string]*Function
}

type triBool uint8

const (
	triUnknown triBool = iota
	triTrue
	triFalse
)

type traitImplBucket struct {
	path  SimplePath
	byKey map[implGroupKey][]*TraitImpl
	all   []*TraitImpl
}

// TraitImplPair names one trait impl together with the SimplePath of the
// trait it implements — the shape §6.1 item 4 serialises.
type TraitImplPair struct {
	Path SimplePath
	Impl *TraitImpl
}

// MarkerImplPair is TraitImplPair's counterpart for §6.1 item 5.
type MarkerImplPair struct {
	Path SimplePath
	Impl *MarkerImpl
}

// NewCrate constructs an empty crate ready for lowering to populate.
func NewCrate(name istr.IStr) *Crate {
	root := NewModule(SimplePath{Crate: name})
	return &Crate{
		Name:           name,
		RootModule:     root,
		typeImplsByKey: make(map[implGroupKey][]*TypeImpl),
		TraitImpls:     make(map[string]*traitImplBucket),
		MarkerImpls:    make(map[string][]*MarkerImpl),
		LangItems:      make(map[string]SimplePath),
		ExportedMacros: make(map[string]MacroRules),
		traitByPath:    make(map[string]TraitHandle),

		allParentsCache:     make(map[string][]TraitPath),
		copyCache:           make(map[uint64]triBool),
		cloneCache:          make(map[uint64]triBool),
		inherentMethodCache: make(map[string]*Function),
	}
}

// bucketKeyOf computes the impl-group bucket for a Self type (§4.9): a
// concrete nominal type is bucketed under its SimplePath's sort key;
// primitives and generics get their own catch-all buckets so a search can
// skip everything else.
func bucketKeyOf(t TypeRef) implGroupKey {
	switch t.Kind() {
	case TyPath:
		p := t.PathOf()
		if p.Kind == PathGeneric {
			return implGroupKey(p.Generic.Path.String())
		}
		return genericBucket
	case TyPrimitive, TyTuple, TyArray, TySlice, TyFunction, TyNamedFunction, TyBorrow, TyPointer, TyTraitObject:
		return primitiveBucket
	default:
		return genericBucket
	}
}

// AddTypeImpl registers an inherent impl in its bucket (§3.8).
func (c *Crate) AddTypeImpl(impl *TypeImpl) {
	key := bucketKeyOf(impl.Type)
	c.typeImplsByKey[key] = append(c.typeImplsByKey[key], impl)
	c.AllTypeImpls = append(c.AllTypeImpls, impl)
}

// TypeImplsFor returns candidate inherent impls for ty: its concrete
// bucket plus the generic catch-all.
func (c *Crate) TypeImplsFor(ty TypeRef) []*TypeImpl {
	key := bucketKeyOf(ty)
	out := append([]*TypeImpl(nil), c.typeImplsByKey[key]...)
	if key != genericBucket {
		out = append(out, c.typeImplsByKey[genericBucket]...)
	}
	return out
}

// AddTraitImpl registers a trait impl under its trait's SimplePath and
// Self-type bucket (§3.8, §4.5 step 7).
func (c *Crate) AddTraitImpl(traitPath SimplePath, impl *TraitImpl) {
	key := traitPath.String()
	b, ok := c.TraitImpls[key]
	if !ok {
		b = &traitImplBucket{path: traitPath, byKey: make(map[implGroupKey][]*TraitImpl)}
		c.TraitImpls[key] = b
	}
	bucket := bucketKeyOf(impl.Type)
	b.byKey[bucket] = append(b.byKey[bucket], impl)
	b.all = append(b.all, impl)
}

// TraitImplCandidates returns the impls to examine for (traitPath, ty):
// the concrete bucket first, then the generic bucket, per §4.5 step 7.
// When ty is an inference variable (TyInfer), all buckets are searched.
func (c *Crate) TraitImplCandidates(traitPath SimplePath, ty TypeRef) []*TraitImpl {
	b, ok := c.TraitImpls[traitPath.String()]
	if !ok {
		return nil
	}
	if ty.Kind() == TyInfer {
		return b.all
	}
	key := bucketKeyOf(ty)
	out := append([]*TraitImpl(nil), b.byKey[key]...)
	if key != genericBucket {
		out = append(out, b.byKey[genericBucket]...)
	}
	return out
}

// AllTraitImplsOf returns every impl registered for a trait, regardless
// of bucket — used by overlap checking (§4.9) which must consider the
// whole impl set for one trait.
func (c *Crate) AllTraitImplsOf(traitPath SimplePath) []*TraitImpl {
	b, ok := c.TraitImpls[traitPath.String()]
	if !ok {
		return nil
	}
	return b.all
}

// AllTraitImplPairs returns every trait impl in the crate paired with its
// trait's SimplePath, in a deterministic order — the shape the metadata
// codec serialises for §6.1 item 4.
func (c *Crate) AllTraitImplPairs() []TraitImplPair {
	keys := make([]string, 0, len(c.TraitImpls))
	for k := range c.TraitImpls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []TraitImplPair
	for _, k := range keys {
		b := c.TraitImpls[k]
		for _, impl := range b.all {
			out = append(out, TraitImplPair{Path: b.path, Impl: impl})
		}
	}
	return out
}

// AllMarkerImplPairs is AllTraitImplPairs' counterpart for §6.1 item 5.
// MarkerImpls is keyed directly by the marker trait's SimplePath string,
// so the path is recovered from the markerImplPaths side table — callers that
// build MarkerImpls MUST use AddMarkerImpl rather than writing the map
// directly, so the path travels with each entry.
func (c *Crate) AllMarkerImplPairs() []MarkerImplPair {
	keys := make([]string, 0, len(c.markerImplPaths))
	for k := range c.markerImplPaths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []MarkerImplPair
	for _, k := range keys {
		path := c.markerImplPaths[k]
		for _, impl := range c.MarkerImpls[k] {
			out = append(out, MarkerImplPair{Path: path, Impl: impl})
		}
	}
	return out
}

// AddMarkerImpl registers a marker/auto-trait impl under traitPath (§3.8).
func (c *Crate) AddMarkerImpl(traitPath SimplePath, impl *MarkerImpl) {
	key := traitPath.String()
	c.MarkerImpls[key] = append(c.MarkerImpls[key], impl)
	if c.markerImplPaths == nil {
		c.markerImplPaths = make(map[string]SimplePath)
	}
	c.markerImplPaths[key] = traitPath
}

// RegisterTrait adds tr to the flat trait table and returns its handle,
// used by the post-load pass to populate TraitPath.TraitPtr (§9).
func (c *Crate) RegisterTrait(path SimplePath, tr *Trait) TraitHandle {
	idx := int32(len(c.traitTable))
	c.traitTable = append(c.traitTable, tr)
	h := TraitHandle{idx: idx, ok: true}
	c.traitByPath[path.String()] = h
	return h
}

// ResolveTraitPtr dereferences a TraitHandle. Calling this before the
// post-load pass has run is an internal invariant breach (§3.1, §9);
// callers that might run early should check h.Valid() first.
func (c *Crate) ResolveTraitPtr(h TraitHandle) *Trait {
	if !h.ok {
		panic("hir: dereferenced an unpopulated TraitHandle before post-load (see diag.HIR003)")
	}
	return c.traitTable[h.idx]
}

// LookupTrait resolves a trait by its SimplePath, used by lowering and
// the post-load pass to fill in TraitPath.TraitPtr for every TraitPath in
// the crate.
func (c *Crate) LookupTrait(path SimplePath) (TraitHandle, bool) {
	h, ok := c.traitByPath[path.String()]
	return h, ok
}
