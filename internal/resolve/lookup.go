package resolve

import "github.com/sunholo/hirgo/internal/hir"

// itemAtPath walks the crate's module tree along path.Components and
// returns the TypeItem found there, or ok=false. Used by the struct/
// enum/union lookups below and by GetValue (§6.3).
func (r *Resolver) itemAtPath(path hir.SimplePath) (hir.TypeItem, bool) {
	mod := r.Crate.RootModule
	if len(path.Components) == 0 {
		return hir.TypeItem{}, false
	}
	for i, c := range path.Components {
		name := c.Raw()
		ve, ok := mod.ModItems[name]
		if !ok {
			return hir.TypeItem{}, false
		}
		if i == len(path.Components)-1 {
			return ve.Item, true
		}
		if ve.Item.Kind != hir.TypeItemModule {
			return hir.TypeItem{}, false
		}
		mod = ve.Item.Module
	}
	return hir.TypeItem{}, false
}

// valueAtPath is itemAtPath's ValueItem counterpart, for GetValue's
// value-namespace lookups (§6.3).
func (r *Resolver) valueAtPath(path hir.SimplePath) (hir.ValueItem, bool) {
	if len(path.Components) == 0 {
		return hir.ValueItem{}, false
	}
	mod := r.Crate.RootModule
	for i, c := range path.Components {
		name := c.Raw()
		if i == len(path.Components)-1 {
			ve, ok := mod.ValueItems[name]
			if !ok {
				return hir.ValueItem{}, false
			}
			return ve.Item, true
		}
		ve, ok := mod.ModItems[name]
		if !ok || ve.Item.Kind != hir.TypeItemModule {
			return hir.ValueItem{}, false
		}
		mod = ve.Item.Module
	}
	return hir.ValueItem{}, false
}

func (r *Resolver) lookupStruct(path hir.SimplePath) *hir.Struct {
	it, ok := r.itemAtPath(path)
	if !ok || it.Kind != hir.TypeItemStruct {
		return nil
	}
	return it.Struct
}

func (r *Resolver) lookupEnum(path hir.SimplePath) *hir.Enum {
	it, ok := r.itemAtPath(path)
	if !ok || it.Kind != hir.TypeItemEnum {
		return nil
	}
	return it.Enum
}

func (r *Resolver) lookupUnion(path hir.SimplePath) *hir.Union {
	it, ok := r.itemAtPath(path)
	if !ok || it.Kind != hir.TypeItemUnion {
		return nil
	}
	return it.Union
}

// lookupFunction resolves a TyNamedFunction's definition path to the
// Function item it names, for fnFamilyAssoc's Output lookup. Free
// functions live in the value namespace (ValueItems), not ModItems, so
// this goes through valueAtPath rather than itemAtPath.
func (r *Resolver) lookupFunction(path hir.SimplePath) *hir.Function {
	it, ok := r.valueAtPath(path)
	if !ok || it.Kind != hir.ValueItemFunction {
		return nil
	}
	return it.Function
}
