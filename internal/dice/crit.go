package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// CritPolicy is the strategy applied to a damage roll that follows a critical hit.
type CritPolicy interface {
	// Name is the configuration name of the policy.
	Name() string
	// Expand rewrites the expression before its dice are requested.
	//
	// Postcondition: Returns a ParsedExpression or an error wrapping ErrInvalidExpression.
	Expand(expr ParsedExpression) (ParsedExpression, error)
	// Apply adjusts the reconciled roll and marks it Critical.
	Apply(roll ReconciledRoll) ReconciledRoll
}

// Crit policy names as they appear in configuration.
const (
	PolicyNone        = "none"
	PolicyDoubleDice  = "double_dice"
	PolicyAddMaximum  = "add_max"
	PolicyDoubleTotal = "double_total"
)

// PolicyNames lists every valid crit policy name.
var PolicyNames = []string{PolicyNone, PolicyDoubleDice, PolicyAddMaximum, PolicyDoubleTotal}

// ParsePolicy returns the CritPolicy for a configuration name.
//
// Postcondition: Returns a non-nil policy, or an error for an unknown name.
func ParsePolicy(name string) (CritPolicy, error) {
	switch name {
	case PolicyNone:
		return NoCrit{}, nil
	case PolicyDoubleDice:
		return DoubleDice{}, nil
	case PolicyAddMaximum:
		return AddMaximum{}, nil
	case PolicyDoubleTotal:
		return DoubleTotal{}, nil
	}
	return nil, fmt.Errorf("dice: unknown crit policy %q, want one of [%s]", name, strings.Join(PolicyNames, ", "))
}

// NoCrit leaves crits unmodified.
type NoCrit struct{}

func (NoCrit) Name() string { return PolicyNone }

func (NoCrit) Expand(expr ParsedExpression) (ParsedExpression, error) { return expr, nil }

func (NoCrit) Apply(roll ReconciledRoll) ReconciledRoll { return roll }

// DoubleDice requests twice as many dice for every group: "1d8+3" becomes "2d8+3".
// Expand fails when a doubled group would exceed MaxGroupDice.
type DoubleDice struct{}

func (DoubleDice) Name() string { return PolicyDoubleDice }

func (DoubleDice) Expand(expr ParsedExpression) (ParsedExpression, error) {
	return rewriteGroups(expr, func(g DiceGroup) string {
		return g.withCount(g.Count * 2)
	}, "")
}

func (DoubleDice) Apply(roll ReconciledRoll) ReconciledRoll {
	roll.Critical = true
	return roll
}

// AddMaximum appends the most the dice groups can produce as a flat constant:
// "1d8+3" becomes "1d8+3+8".
type AddMaximum struct{}

func (AddMaximum) Name() string { return PolicyAddMaximum }

func (AddMaximum) Expand(expr ParsedExpression) (ParsedExpression, error) {
	maximum := 0
	for _, g := range expr.Groups {
		m := g.KeptCount() * g.Faces
		if g.Negative {
			m = -m
		}
		maximum += m
	}
	var suffix string
	switch {
	case maximum > 0:
		suffix = "+" + strconv.Itoa(maximum)
	case maximum < 0:
		suffix = strconv.Itoa(maximum)
	}
	return rewriteGroups(expr, func(g DiceGroup) string { return g.Text }, suffix)
}

func (AddMaximum) Apply(roll ReconciledRoll) ReconciledRoll {
	roll.Critical = true
	return roll
}

// DoubleTotal doubles the reconciled total and renders the breakdown as "2×(...)".
type DoubleTotal struct{}

func (DoubleTotal) Name() string { return PolicyDoubleTotal }

func (DoubleTotal) Expand(expr ParsedExpression) (ParsedExpression, error) { return expr, nil }

func (DoubleTotal) Apply(roll ReconciledRoll) ReconciledRoll {
	roll.Total *= 2
	roll.Substituted = "2×(" + roll.Substituted + ")"
	roll.Critical = true
	return roll
}

// rewriteGroups rebuilds expr.Raw with each group replaced by fn(group) and
// suffix appended, then parses the result.
func rewriteGroups(expr ParsedExpression, fn func(DiceGroup) string, suffix string) (ParsedExpression, error) {
	var b strings.Builder
	last := 0
	for _, g := range expr.Groups {
		b.WriteString(expr.Raw[last:g.Offset])
		b.WriteString(fn(g))
		last = g.Offset + len(g.Text)
	}
	b.WriteString(expr.Raw[last:])
	b.WriteString(suffix)
	return Parse(b.String())
}
