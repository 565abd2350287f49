package dice

import "strings"

// IsComplex reports whether a naive renderer that only understands "NdF(+/-C)",
// "2dFkh1" and "2dFkl1" would misreport e. A complex roll needs the substituted
// expression supplied alongside its result.
//
// e is complex when it has no dice group or more than one, when any group uses
// a reroll rule or more than one suffix, when a constant precedes the first
// group ("1-1d4"), or when a keep rule is anything other than keep 1 of exactly 2.
func (e ParsedExpression) IsComplex() bool {
	if len(e.Groups) != 1 {
		return true
	}
	g := e.Groups[0]
	if g.HasReroll() || g.Suffixes > 1 {
		return true
	}
	if g.Offset != 0 {
		return true
	}
	if g.HasKeep() && (g.Keep.Count != 1 || g.PhysicalCount() != 2) {
		return true
	}
	return false
}

// IsAdvantage reports whether e is the simple "2dFkh1" shape.
func (e ParsedExpression) IsAdvantage() bool {
	return e.isPair(KeepHighest)
}

// IsDisadvantage reports whether e is the simple "2dFkl1" shape.
func (e ParsedExpression) IsDisadvantage() bool {
	return e.isPair(KeepLowest)
}

func (e ParsedExpression) isPair(kind KeepKind) bool {
	if e.IsComplex() || !strings.HasPrefix(e.Raw, "2d") {
		return false
	}
	g := e.Groups[0]
	return g.Count == 2 && g.Keep.Kind == kind && g.Keep.Count == 1
}
