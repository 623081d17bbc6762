// Package istr provides process-global string interning with hash-consing.
//
// Every identifier, ABI string, and crate name in the HIR is stored as an
// IStr: a reference-counted handle whose equality is pointer equality after
// interning (§3.1). The serialised crate metadata format orders the
// interned-string dictionary by descending use count (§4.1), so the
// interner also tracks how many times each string has been resolved.
package istr

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// IStr is a hash-consed, reference-counted immutable string handle.
// Two IStr values compare equal with == iff they were interned from
// NFC-equivalent byte strings.
type IStr struct {
	e *entry
}

type entry struct {
	text  string
	refs  int64 // hash-cons reference count
	mu    sync.Mutex
	uses  int64 // resolution count, for dictionary ordering (§4.1)
}

// Empty is the interned empty string, used as the sentinel crate name
// during lowering (§3.1).
var Empty = Intern("")

// Builtins is the reserved "#builtins" crate name (§3.1).
var Builtins = Intern("#builtins")

type interner struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var global = &interner{entries: make(map[string]*entry)}

// Intern hash-conses s, normalising to NFC first so that visually identical
// but differently-composed Unicode identifiers (the source language allows
// Unicode identifiers) intern to the same handle.
func Intern(s string) IStr {
	norm := norm.NFC.String(s)
	global.mu.Lock()
	defer global.mu.Unlock()
	e, ok := global.entries[norm]
	if !ok {
		e = &entry{text: norm}
		global.entries[norm] = e
	}
	e.refs++
	return IStr{e: e}
}

// String returns the underlying text and records a use, for dictionary
// ordering purposes.
func (s IStr) String() string {
	if s.e == nil {
		return ""
	}
	s.e.mu.Lock()
	s.e.uses++
	s.e.mu.Unlock()
	return s.e.text
}

// Raw returns the underlying text without recording a use. Prefer String
// for any path that feeds the serialiser's dictionary ordering.
func (s IStr) Raw() string {
	if s.e == nil {
		return ""
	}
	return s.e.text
}

// IsEmpty reports whether this is the zero value or the interned "".
func (s IStr) IsEmpty() bool {
	return s.e == nil || s.e.text == ""
}

// Equal is pointer-equality after interning — the handle comparison
// mandated by §3.1. Plain == also works since IStr wraps a single pointer,
// but Equal documents the intent at call sites.
func (s IStr) Equal(o IStr) bool {
	return s.e == o.e
}

// Less gives a total, deterministic order over interned strings by their
// text — used for sorting generic-parameter lists, diagnostic output, and
// the lexicographically-smallest-representative rule in associated-type
// loop breaking (§4.8 step 2).
func (s IStr) Less(o IStr) bool {
	return s.Raw() < o.Raw()
}

// ClearAll drops every interned entry. Called between crates in a batch
// compile (§5, "Resource policy") — never mid-compile.
func ClearAll() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.entries = make(map[string]*entry)
}

// DictionaryOrder returns every currently-interned string ordered by
// descending use count, ties broken by text, matching the front-loaded
// string table the codec writes (§4.1).
func DictionaryOrder() []IStr {
	global.mu.Lock()
	entries := make([]*entry, 0, len(global.entries))
	for _, e := range global.entries {
		entries = append(entries, e)
	}
	global.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if ei.uses != ej.uses {
			return ei.uses > ej.uses
		}
		return ei.text < ej.text
	})

	out := make([]IStr, len(entries))
	for i, e := range entries {
		out[i] = IStr{e: e}
	}
	return out
}
