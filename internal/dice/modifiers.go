package dice

import (
	"strconv"
	"strings"
)

// StatModifiers holds the values substituted for modifier shorthand.
type StatModifiers struct {
	Str         int
	Dex         int
	Con         int
	Int         int
	Wis         int
	Cha         int
	Proficiency int
}

// Lookup returns the modifier for a shorthand token, matched case-insensitively.
// Recognised tokens are str, dex, con, int, wis, cha and pb.
func (m StatModifiers) Lookup(token string) (int, bool) {
	switch strings.ToLower(token) {
	case "str":
		return m.Str, true
	case "dex":
		return m.Dex, true
	case "con":
		return m.Con, true
	case "int":
		return m.Int, true
	case "wis":
		return m.Wis, true
	case "cha":
		return m.Cha, true
	case "pb":
		return m.Proficiency, true
	}
	return 0, false
}

// SubstituteModifiers replaces modifier shorthand in expr with numeric values,
// e.g. "1d20+dex+pb" becomes "1d20+3+2".
//
// A token is only recognised as a whole word. Substitution proceeds left to right
// and stops at the first token that is not preceded by a '+' or '-' operator,
// so "1d20 + dex dex-based attack" only replaces the first "dex". A negative
// value flips the preceding operator instead of producing "+-".
//
// Postcondition: text outside substituted tokens is returned unchanged.
func SubstituteModifiers(expr string, mods StatModifiers) string {
	out := make([]byte, 0, len(expr))
	cursor := 0
	for i := 0; i < len(expr); {
		if !isWordByte(expr[i]) {
			i++
			continue
		}
		start := i
		for i < len(expr) && isWordByte(expr[i]) {
			i++
		}
		value, ok := mods.Lookup(expr[start:i])
		if !ok {
			continue
		}
		if !endsWithOperator(expr[:start]) {
			break
		}
		out = append(out, expr[cursor:start]...)
		if value < 0 {
			flipLastOperator(out)
			value = -value
		}
		out = strconv.AppendInt(out, int64(value), 10)
		cursor = i
	}
	out = append(out, expr[cursor:]...)
	return string(out)
}

func isWordByte(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// endsWithOperator reports whether s ends with '+' or '-', ignoring trailing spaces.
func endsWithOperator(s string) bool {
	s = strings.TrimRight(s, " \t")
	return strings.HasSuffix(s, "+") || strings.HasSuffix(s, "-")
}

func flipLastOperator(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		switch b[i] {
		case '+':
			b[i] = '-'
			return
		case '-':
			b[i] = '+'
			return
		}
	}
}
