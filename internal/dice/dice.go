// Package dice provides the dice expression engine: normalization, tokenizing,
// planning of physical dice, and reconciliation of externally rolled face values
// back against the expression that requested them.
package dice

import (
	"strconv"
	"strings"
)

// supportedFaces lists the die sizes accepted by the grammar.
var supportedFaces = map[int]bool{4: true, 6: true, 8: true, 10: true, 12: true, 20: true, 100: true}

// IsSupportedFaces reports whether n is a die size the grammar accepts.
func IsSupportedFaces(n int) bool {
	return supportedFaces[n]
}

// KeepKind selects which end of a sorted group a keep rule retains.
type KeepKind int

const (
	// KeepNone means the group keeps every value.
	KeepNone KeepKind = iota
	// KeepHighest retains the highest values ("kh").
	KeepHighest
	// KeepLowest retains the lowest values ("kl").
	KeepLowest
)

// String returns the grammar suffix for k.
func (k KeepKind) String() string {
	switch k {
	case KeepHighest:
		return "kh"
	case KeepLowest:
		return "kl"
	default:
		return ""
	}
}

// KeepRule retains Count values of a group after rerolls are applied.
//
// Invariant: Kind == KeepNone or Count >= 1.
type KeepRule struct {
	Kind  KeepKind
	Count int
}

// Comparator is the relational operator of a reroll rule.
type Comparator int

const (
	// CompareNone means no reroll rule is present.
	CompareNone Comparator = iota
	CompareLess
	CompareLessOrEqual
	CompareGreater
	CompareGreaterOrEqual
	CompareEqual
)

// String returns the grammar spelling of c.
func (c Comparator) String() string {
	switch c {
	case CompareLess:
		return "<"
	case CompareLessOrEqual:
		return "<="
	case CompareGreater:
		return ">"
	case CompareGreaterOrEqual:
		return ">="
	case CompareEqual:
		return "="
	default:
		return ""
	}
}

// Holds reports whether "v c threshold" is true.
func (c Comparator) Holds(v, threshold int) bool {
	switch c {
	case CompareLess:
		return v < threshold
	case CompareLessOrEqual:
		return v <= threshold
	case CompareGreater:
		return v > threshold
	case CompareGreaterOrEqual:
		return v >= threshold
	case CompareEqual:
		return v == threshold
	default:
		return false
	}
}

// RerollRule replaces a primary roll with a reroll candidate when the
// comparator holds against Value ("ro<2").
type RerollRule struct {
	Comparator Comparator
	Value      int
}

// MaxGroupDice bounds the physical dice one group may request, reroll
// candidates included. A crit that doubles a group is held to the same bound.
const MaxGroupDice = 1000

// DiceGroup is one contiguous dice sub-expression such as "2d20kh1" or "1d6ro<2".
//
// Invariant: Count >= 1; PhysicalCount() <= MaxGroupDice; IsSupportedFaces(Faces);
// Keep.Count <= PhysicalCount().
type DiceGroup struct {
	// Text is the group exactly as it appears in the normalized expression.
	Text string
	// Offset is the byte offset of Text within the normalized expression.
	Offset int
	// Count is the number of dice requested before any reroll doubling.
	Count int
	// Faces is the die size.
	Faces int
	// Keep is the keep-highest/lowest rule; Kind == KeepNone when absent.
	Keep KeepRule
	// Reroll is the conditional reroll rule; Comparator == CompareNone when absent.
	Reroll RerollRule
	// Suffixes is the number of modifier suffixes written after the die size.
	Suffixes int
	// Negative is true when the group is subtracted from the total.
	Negative bool
}

// HasKeep reports whether the group carries a keep rule.
func (g DiceGroup) HasKeep() bool { return g.Keep.Kind != KeepNone }

// HasReroll reports whether the group carries a reroll rule.
func (g DiceGroup) HasReroll() bool { return g.Reroll.Comparator != CompareNone }

// PhysicalCount is the number of dice the external roller must produce for g.
//
// Postcondition: returns 2*Count when a reroll rule is present, else Count.
func (g DiceGroup) PhysicalCount() int {
	if g.HasReroll() {
		return g.Count * 2
	}
	return g.Count
}

// KeptCount is the number of values g contributes to the total.
func (g DiceGroup) KeptCount() int {
	if g.HasKeep() && g.Keep.Count < g.Count {
		return g.Keep.Count
	}
	return g.Count
}

// withCount returns g's text with its dice count replaced by n.
func (g DiceGroup) withCount(n int) string {
	idx := strings.IndexByte(g.Text, 'd')
	return strconv.Itoa(n) + g.Text[idx:]
}

// ConstantTerm is a signed integer literal appearing outside any dice group.
type ConstantTerm struct {
	// Value carries the effective sign of the literal, parentheses included.
	Value int
	// Offset is the byte offset of the literal's digits within the normalized expression.
	Offset int
}

// ParsedExpression is the normalized, immutable form of a dice expression.
//
// Invariant: len(Groups) > 0, or Raw is a lone signed integer constant.
type ParsedExpression struct {
	// Raw is the normalized expression.
	Raw string
	// Groups are the dice groups in left-to-right order.
	Groups []DiceGroup
	// Constants are the literal terms in left-to-right order.
	Constants []ConstantTerm
	// Constant is Constants folded into one signed integer.
	Constant int
}

// String returns the normalized expression.
func (e ParsedExpression) String() string {
	return e.Raw
}

// Source is the randomness provider for the local roller.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
