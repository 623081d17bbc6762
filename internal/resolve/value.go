package resolve

import "github.com/sunholo/hirgo/internal/hir"

// ValuePtrKind tags the shape GetValue resolved path to (§6.3).
type ValuePtrKind uint8

const (
	ValueNotFound ValuePtrKind = iota
	ValueNotYetKnown
	ValueFunction
	ValueStatic
	ValueConstant
	ValueStructConstant   // a unit struct or unit enum-variant's value
	ValueStructConstructor // a tuple struct or tuple enum-variant's constructor fn
)

// ValuePtr is GetValue's result: the value-namespace item path resolves
// to, or a reason it doesn't resolve to one.
type ValuePtr struct {
	Kind     ValuePtrKind
	Function *hir.Function
	Static   *hir.Static
	Constant *hir.Constant
	Target   hir.SimplePath // for StructConstant/StructConstructor
}

// GetValue is `get_value` (§6.3): resolve a SimplePath in the
// value namespace, following import redirects, to whatever item it
// ultimately names. Enum variant constructors and unit values are
// represented the same way as a tuple/unit struct's, per §4.3's
// synthetic-struct desugaring of enum variants carried over from
// lowering — there is no separate "enum constructor" shape at this
// layer, only the struct one the variant desugars to.
func (r *Resolver) GetValue(path hir.SimplePath) ValuePtr {
	return r.getValueFollowing(path, make(map[string]bool))
}

func (r *Resolver) getValueFollowing(path hir.SimplePath, seen map[string]bool) ValuePtr {
	key := path.String()
	if seen[key] {
		return ValuePtr{Kind: ValueNotYetKnown}
	}
	seen[key] = true

	item, ok := r.valueAtPath(path)
	if !ok {
		return ValuePtr{Kind: ValueNotFound}
	}
	switch item.Kind {
	case hir.ValueItemFunction:
		return ValuePtr{Kind: ValueFunction, Function: item.Function}
	case hir.ValueItemStatic:
		return ValuePtr{Kind: ValueStatic, Static: item.Static}
	case hir.ValueItemConstant:
		return ValuePtr{Kind: ValueConstant, Constant: item.Constant}
	case hir.ValueItemStructConstant:
		if item.StructConstant == nil {
			return ValuePtr{Kind: ValueNotFound}
		}
		return ValuePtr{Kind: ValueStructConstant, Target: *item.StructConstant}
	case hir.ValueItemStructConstructor:
		if item.StructConstructor == nil {
			return ValuePtr{Kind: ValueNotFound}
		}
		return ValuePtr{Kind: ValueStructConstructor, Target: *item.StructConstructor}
	case hir.ValueItemImport:
		if item.Import == nil {
			return ValuePtr{Kind: ValueNotFound}
		}
		return r.getValueFollowing(item.Import.Target, seen)
	default:
		return ValuePtr{Kind: ValueNotFound}
	}
}
