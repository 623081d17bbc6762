package lower

import (
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

// lowerGenerics translates a surface generic-parameter list plus its
// where-bounds into hir.GenericParams (§3.3).
func (l *Lowerer) lowerGenerics(gs []srcast.GenericParam, bounds []srcast.Bound) hir.GenericParams {
	var out hir.GenericParams
	for _, g := range gs {
		switch {
		case g.IsLifetime:
			out.Lifetimes = append(out.Lifetimes, hir.LifetimeDef{Name: istr.Intern(g.Name)})
		case g.IsValue:
			out.Values = append(out.Values, hir.ValueParamDef{Name: istr.Intern(g.Name), Type: l.lowerType(g.ValueType, nil)})
		default:
			var def *hir.TypeRef
			if g.Default != nil {
				t := l.lowerType(g.Default, nil)
				def = &t
			}
			out.Types = append(out.Types, hir.TypeParamDef{Name: istr.Intern(g.Name), Default: def, IsSized: g.IsSized})
		}
	}
	for _, b := range bounds {
		out.Bounds = append(out.Bounds, l.lowerBound(b))
	}
	return out
}

func (l *Lowerer) lowerBound(b srcast.Bound) hir.GenericBound {
	switch {
	case b.Lifetime != "" && b.Trait == nil && b.Equals == nil && b.Subject == nil:
		return hir.GenericBound{Kind: hir.BoundLifetime, LifetimeA: istr.Intern(b.Lifetime)}
	case b.Equals != nil:
		return hir.GenericBound{Kind: hir.BoundTypeEquality, Type: l.lowerType(b.Subject, nil), Other: l.lowerType(b.Equals, nil)}
	case b.Trait != nil:
		return hir.GenericBound{Kind: hir.BoundTrait, TraitType: l.lowerType(b.Subject, nil), Trait: l.lowerTraitPath(b.Trait, nil)}
	default:
		return hir.GenericBound{Kind: hir.BoundTypeLifetime, Type: l.lowerType(b.Subject, nil), Lifetime: istr.Intern(b.Lifetime)}
	}
}
