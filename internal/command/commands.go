// Package command provides the slash-command registry, parser, and roll
// metadata derived from chat text such as "/hit 2d20kh1+4 Shortsword".
package command

import "strings"

// Handler identifiers mapping commands to the roll metadata they derive.
const (
	HandlerRoll   = "roll"
	HandlerHit    = "hit"
	HandlerDamage = "damage"
	HandlerSkill  = "skill"
	HandlerSave   = "save"
	HandlerHeal   = "heal"
)

// Command defines a slash command.
type Command struct {
	// Name is the canonical command name, without the leading '/'.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short usage text.
	Help string
	// Handler selects how the action text after the expression is interpreted.
	Handler string
}

// BuiltinCommands returns every supported slash command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "roll", Aliases: []string{"r", "ir"}, Help: "Roll an expression: /r 1d20+4 action:roll type", Handler: HandlerRoll},
		{Name: "hit", Help: "Roll to hit: /hit 2d20kh1+5 Longsword", Handler: HandlerHit},
		{Name: "dmg", Help: "Roll damage: /dmg 1d8+3 Longsword:slashing", Handler: HandlerDamage},
		{Name: "skill", Help: "Roll a skill check: /skill 1d20+dex Stealth", Handler: HandlerSkill},
		{Name: "save", Help: "Roll a saving throw: /save 1d20+con Constitution", Handler: HandlerSave},
		{Name: "heal", Help: "Roll healing: /heal 2d4+2 Potion", Handler: HandlerHeal},
	}
}

// RollType labels what a roll is for. The zero value means unset.
type RollType string

// Recognised roll types.
const (
	RollTypeToHit      RollType = "to hit"
	RollTypeDamage     RollType = "damage"
	RollTypeSave       RollType = "save"
	RollTypeCheck      RollType = "check"
	RollTypeHeal       RollType = "heal"
	RollTypeReroll     RollType = "reroll"
	RollTypeInitiative RollType = "initiative"
	RollTypeAttack     RollType = "attack"
	RollTypeRoll       RollType = "roll"
	RollTypeRecharge   RollType = "recharge"
)

// RollTypes lists every recognised roll type.
var RollTypes = []RollType{
	RollTypeToHit, RollTypeDamage, RollTypeSave, RollTypeCheck, RollTypeHeal,
	RollTypeReroll, RollTypeInitiative, RollTypeAttack, RollTypeRoll, RollTypeRecharge,
}

// ParseRollType normalizes s (trimmed, lowercased, first '-' read as a space)
// and reports whether it names a recognised roll type.
//
// Postcondition: ok is false and rt is empty when s is not recognised.
func ParseRollType(s string) (rt RollType, ok bool) {
	candidate := RollType(strings.Replace(strings.ToLower(strings.TrimSpace(s)), "-", " ", 1))
	for _, known := range RollTypes {
		if candidate == known {
			return known, true
		}
	}
	return "", false
}

// IsAttack reports whether rt is a roll that can score a critical hit.
func (rt RollType) IsAttack() bool {
	return rt == RollTypeToHit || rt == RollTypeAttack
}
