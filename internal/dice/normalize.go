package dice

import (
	"fmt"
	"strings"
	"unicode"
)

// alphabet holds every byte permitted in a normalized expression.
const alphabet = "0123456789dkhlro<=>+-()"

// Normalize canonicalizes a raw expression: whitespace is removed and a bare die
// reference ("d6", "+d8") gains an explicit count of 1.
//
// Precondition: modifier shorthand has already been substituted.
// Postcondition: Returns a string made only of grammar characters, or an error
// wrapping ErrInvalidExpression. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, error) {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	// An inserted count can itself follow a 'd' ("dd6"), so expand to a fixed point.
	s := stripped
	for {
		expanded := expandBareDice(s)
		if expanded == s {
			break
		}
		s = expanded
	}

	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return "", fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidExpression, s[i], raw)
		}
	}
	return s, nil
}

// expandBareDice inserts "1" before every "d<digit>" not preceded by a digit.
func expandBareDice(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'd' && i+1 < len(s) && isDigit(s[i+1]) && (i == 0 || !isDigit(s[i-1])) {
			b.WriteByte('1')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
