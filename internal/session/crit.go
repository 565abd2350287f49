package session

import (
	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/dice"
)

type critState int

const (
	critIdle critState = iota
	critAwaitingDamage
)

// critTracker remembers a critical hit until the damage roll that follows it.
//
// Invariant: action is empty whenever state is critIdle.
type critTracker struct {
	state  critState
	action string
}

// consume is called as a roll is dispatched. It reports whether the roll is the
// damage roll for a pending crit, and always returns the tracker to idle.
func (c *critTracker) consume(roll command.Roll) bool {
	if c.state != critAwaitingDamage {
		return false
	}
	applies := roll.RollType == command.RollTypeDamage &&
		(c.action == "" || roll.Action == "" || c.action == roll.Action)
	c.reset()
	return applies
}

// observe records a completed attack roll, arming the tracker when any kept
// d20 face reaches critRange. It reports whether the roll was a crit.
func (c *critTracker) observe(roll command.Roll, expr dice.ParsedExpression, out dice.Outcome, critRange int) bool {
	if !roll.RollType.IsAttack() || !isCritHit(expr, out, critRange) {
		return false
	}
	c.state = critAwaitingDamage
	c.action = roll.Action
	return true
}

func (c *critTracker) reset() {
	c.state = critIdle
	c.action = ""
}

// isCritHit reports whether a positive d20 group of a reconciled roll kept a
// face of at least critRange. Unreconciled rolls never crit.
func isCritHit(expr dice.ParsedExpression, out dice.Outcome, critRange int) bool {
	if !out.Reconciled {
		return false
	}
	for i, g := range expr.Groups {
		if g.Faces != 20 || g.Negative || i >= len(out.Roll.Kept) {
			continue
		}
		for _, v := range out.Roll.Kept[i] {
			if v >= critRange {
				return true
			}
		}
	}
	return false
}
