package lower

import (
	"strconv"

	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

func attr(attrs []srcast.Attr, name string) (srcast.Attr, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return srcast.Attr{}, false
}

// lowerLinkage implements §4.3's linkage-name rule: a `#[no_mangle]`,
// `#[link_name="…"]`, `#[rustc_std_internal_symbol]`, or an externally
// declared function/static gets an explicit symbol name; otherwise the
// name is left empty for downstream mangling.
func lowerLinkage(name string, attrs []srcast.Attr, isExtern bool) hir.Linkage {
	if a, ok := attr(attrs, "link_name"); ok {
		return hir.Linkage{Name: istr.Intern(a.Value)}
	}
	if _, ok := attr(attrs, "no_mangle"); ok {
		return hir.Linkage{Name: istr.Intern(name)}
	}
	if _, ok := attr(attrs, "rustc_std_internal_symbol"); ok {
		return hir.Linkage{Name: istr.Intern(name)}
	}
	if isExtern {
		return hir.Linkage{Name: istr.Intern(name)}
	}
	return hir.Linkage{}
}

// applyScalarRangeMarkings implements §4.3's translation of
// `#[rustc_layout_scalar_valid_range_start/end]` and
// `#[rustc_nonnull_optimization_guaranteed]` into StructMarkings. The
// attributes apply only when the struct's sole relevant field is a
// primitive integer or pointer and the value fits that field's width;
// otherwise the attribute is silently ignored rather than an error, per
// the spec's explicit "do not error" carve-out.
func applyScalarRangeMarkings(sm *hir.StructMarkings, attrs []srcast.Attr, fieldType hir.TypeRef) {
	if _, ok := attr(attrs, "rustc_nonnull_optimization_guaranteed"); ok {
		if fieldType.Kind() == hir.TyPointer || fieldType.Kind() == hir.TyBorrow {
			sm.IsNonzero = true
		}
	}
	if a, ok := attr(attrs, "rustc_layout_scalar_valid_range_end"); ok {
		if v, fits := parseFittingUint(a.Value, fieldType); fits {
			sm.BoundedMax = true
			sm.BoundedMaxValue = v
		}
	}
	// rustc_layout_scalar_valid_range_start has no StructMarkings
	// counterpart in this data model (§3.6 tracks only the max bound); a
	// start-only attribute is therefore ignored, matching the
	// "otherwise ignored" fallback.
}

func parseFittingUint(s string, t hir.TypeRef) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if t.Kind() != hir.TyPrimitive {
		return 0, false
	}
	var width uint
	switch t.PrimitiveOf() {
	case hir.PrimU8, hir.PrimI8:
		width = 8
	case hir.PrimU16, hir.PrimI16:
		width = 16
	case hir.PrimU32, hir.PrimI32:
		width = 32
	case hir.PrimU64, hir.PrimI64, hir.PrimUSize, hir.PrimISize:
		width = 64
	default:
		return 0, false
	}
	if width < 64 && v >= (uint64(1)<<width) {
		return 0, false
	}
	return v, true
}

func isExported(attrs []srcast.Attr) bool {
	_, ok := attr(attrs, "macro_export")
	return ok
}
