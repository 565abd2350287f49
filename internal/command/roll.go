package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

// ErrUnknownCommand is returned when text is not a registered slash command.
var ErrUnknownCommand = errors.New("command: unknown slash command")

// Roll is the roll request derived from a slash command or bare expression.
type Roll struct {
	// Command is the canonical name of the command that produced the roll.
	Command string
	// Expression is the normalized expression with modifier shorthand substituted.
	Expression string
	// Action names what is being rolled ("Longsword"); empty when absent.
	Action string
	// RollType is empty when the command did not set a recognised type.
	RollType RollType
	// DamageType is set for damage rolls that name one ("fire").
	DamageType string
}

// Label renders the roll as a game log title, "<action>: <roll type>".
func (r Roll) Label() string {
	action, rollType := r.Action, string(r.RollType)
	if action == "" {
		action = "custom"
	}
	if rollType == "" {
		rollType = string(RollTypeRoll)
	}
	if r.DamageType != "" {
		rollType = r.DamageType + " " + rollType
	}
	return action + ": " + rollType
}

// Parser turns chat text into Roll requests.
type Parser struct {
	registry *Registry
	logger   *zap.Logger
}

// NewParser creates a Parser resolving commands against registry.
//
// Precondition: registry and logger must be non-nil.
func NewParser(registry *Registry, logger *zap.Logger) *Parser {
	return &Parser{registry: registry, logger: logger}
}

// Registry returns the command registry used by p.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// ParseLine parses a slash command, or a bare expression rolled as "/roll".
//
// Postcondition: see ParseSlash.
func (p *Parser) ParseLine(text string, mods *dice.StatModifiers) (Roll, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return p.ParseSlash(text, mods)
	}
	expr, err := p.expression(text, mods)
	if err != nil {
		return Roll{}, err
	}
	return Roll{Command: "roll", Expression: expr}, nil
}

// ParseSlash parses a single slash command such as "/dmg 1d8+str Longsword:slashing".
// Modifier shorthand in the expression is replaced using mods; when mods is nil
// the shorthand is left in place and a warning is logged. An unrecognised roll
// type is dropped with a warning.
//
// Postcondition: Returns a Roll with a non-empty normalized Expression, or an
// error wrapping ErrUnknownCommand or dice.ErrInvalidExpression.
func (p *Parser) ParseSlash(text string, mods *dice.StatModifiers) (Roll, error) {
	res := Parse(text)
	cmd, ok := p.registry.Resolve(res.Command)
	if res.Command == "" || !ok {
		return Roll{}, fmt.Errorf("%w: %q", ErrUnknownCommand, text)
	}

	exprText, action := ExpressionPrefix(res.RawArgs)
	expr, err := p.expression(exprText, mods)
	if err != nil {
		return Roll{}, err
	}

	roll := Roll{Command: cmd.Name, Expression: expr}
	var rollType, damageType string
	switch cmd.Handler {
	case HandlerRoll:
		action, rollType = splitAction(action)
		if dt, ok := damageFromRollType(rollType); ok {
			damageType, rollType = dt, string(RollTypeDamage)
		}
	case HandlerHit:
		rollType = string(RollTypeToHit)
	case HandlerDamage:
		action, damageType = splitAction(action)
		rollType = string(RollTypeDamage)
	case HandlerSkill:
		rollType = string(RollTypeCheck)
	case HandlerSave:
		rollType = string(RollTypeSave)
	case HandlerHeal:
		rollType = string(RollTypeHeal)
	}

	roll.Action = strings.TrimSpace(action)
	roll.DamageType = strings.TrimSpace(damageType)
	if rollType != "" {
		if rt, ok := ParseRollType(rollType); ok {
			roll.RollType = rt
		} else {
			p.logger.Warn("ignoring unrecognised roll type",
				zap.String("command", text),
				zap.String("roll_type", rollType),
			)
		}
	}
	return roll, nil
}

// expression substitutes modifier shorthand in text and normalizes it.
func (p *Parser) expression(text string, mods *dice.StatModifiers) (string, error) {
	if mods != nil {
		text = dice.SubstituteModifiers(text, *mods)
	} else if hasShorthand(text) {
		p.logger.Warn("no stat modifiers available for shorthand", zap.String("expression", text))
	}
	expr, err := dice.Normalize(text)
	if err != nil {
		return "", err
	}
	if expr == "" {
		return "", fmt.Errorf("%w: no expression in %q", dice.ErrInvalidExpression, text)
	}
	return expr, nil
}

func hasShorthand(text string) bool {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return r > 0x7f || !isWordByte(byte(r)) }) {
		if _, ok := (dice.StatModifiers{}).Lookup(word); ok {
			return true
		}
	}
	return false
}

// splitAction splits "action:detail" at the first ':'. Text after a second ':' is discarded.
func splitAction(s string) (action, detail string) {
	parts := strings.Split(s, ":")
	if len(parts) > 1 {
		detail = parts[1]
	}
	return parts[0], detail
}

// damageFromRollType reads a roll type such as "fire damage" as damage of type "fire".
func damageFromRollType(rollType string) (string, bool) {
	const word = "damage"
	var b strings.Builder
	found := false
	for i := 0; i < len(rollType); {
		if i+len(word) <= len(rollType) && strings.EqualFold(rollType[i:i+len(word)], word) {
			found = true
			kept := strings.TrimRightFunc(b.String(), unicode.IsSpace)
			b.Reset()
			b.WriteString(kept)
			i += len(word)
			continue
		}
		b.WriteByte(rollType[i])
		i++
	}
	if !found {
		return "", false
	}
	return strings.TrimSpace(b.String()), true
}
