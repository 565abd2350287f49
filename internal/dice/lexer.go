package dice

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokDice
	tokPlus
	tokMinus
	tokLParen
	tokRParen
)

// token is one lexeme of a normalized expression.
type token struct {
	kind  tokenKind
	pos   int
	value int       // tokNumber only
	group DiceGroup // tokDice only
}

// lexer walks a normalized expression byte by byte.
type lexer struct {
	s   string
	pos int
}

// lex splits a normalized expression into tokens. Dice groups are recognised
// greedily: digits, 'd', a supported die size, then any run of kh/kl/ro suffixes.
//
// Postcondition: tokens appear in source order; dice groups of the same size in
// different positions stay distinct tokens.
func lex(s string) ([]token, error) {
	l := &lexer{s: s}
	var toks []token
	for l.pos < len(l.s) {
		start := l.pos
		c := l.s[l.pos]
		switch {
		case c == '+':
			l.pos++
			toks = append(toks, token{kind: tokPlus, pos: start})
		case c == '-':
			l.pos++
			toks = append(toks, token{kind: tokMinus, pos: start})
		case c == '(':
			l.pos++
			toks = append(toks, token{kind: tokLParen, pos: start})
		case c == ')':
			l.pos++
			toks = append(toks, token{kind: tokRParen, pos: start})
		case isDigit(c):
			tok, err := l.numberOrDice()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		default:
			return nil, l.errorf("unexpected %q", c)
		}
	}
	return toks, nil
}

func (l *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrInvalidExpression, fmt.Sprintf(format, args...), l.pos, l.s)
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.s) {
		return 0
	}
	return l.s[l.pos]
}

func (l *lexer) hasPrefix(p string) bool {
	return len(l.s)-l.pos >= len(p) && l.s[l.pos:l.pos+len(p)] == p
}

// digits consumes a run of decimal digits and returns its value.
func (l *lexer) digits() (int, error) {
	start := l.pos
	for l.pos < len(l.s) && isDigit(l.s[l.pos]) {
		l.pos++
	}
	if start == l.pos {
		return 0, l.errorf("expected digits")
	}
	n, err := strconv.Atoi(l.s[start:l.pos])
	if err != nil {
		return 0, l.errorf("number %s out of range", l.s[start:l.pos])
	}
	return n, nil
}

func (l *lexer) numberOrDice() (token, error) {
	start := l.pos
	n, err := l.digits()
	if err != nil {
		return token{}, err
	}
	if l.peek() != 'd' {
		return token{kind: tokNumber, pos: start, value: n}, nil
	}
	l.pos++

	faces, err := l.digits()
	if err != nil {
		return token{}, err
	}
	if !IsSupportedFaces(faces) {
		return token{}, l.errorf("unsupported die d%d", faces)
	}
	if n < 1 {
		return token{}, l.errorf("dice count must be >= 1")
	}
	if n > MaxGroupDice {
		return token{}, l.errorf("dice count %d exceeds %d", n, MaxGroupDice)
	}

	g := DiceGroup{Offset: start, Count: n, Faces: faces}
	for {
		switch {
		case l.hasPrefix("kh"), l.hasPrefix("kl"):
			kind := KeepHighest
			if l.s[l.pos+1] == 'l' {
				kind = KeepLowest
			}
			l.pos += 2
			k, err := l.digits()
			if err != nil {
				return token{}, err
			}
			if k < 1 {
				return token{}, l.errorf("keep count must be >= 1")
			}
			// "kh" wins over "kl"; the first suffix of a kind wins over repeats.
			if g.Keep.Kind == KeepNone || (g.Keep.Kind == KeepLowest && kind == KeepHighest) {
				g.Keep = KeepRule{Kind: kind, Count: k}
			}
			g.Suffixes++
		case l.hasPrefix("ro"):
			l.pos += 2
			cmp, err := l.comparator()
			if err != nil {
				return token{}, err
			}
			v, err := l.digits()
			if err != nil {
				return token{}, err
			}
			if !g.HasReroll() {
				g.Reroll = RerollRule{Comparator: cmp, Value: v}
			}
			g.Suffixes++
		default:
			g.Text = l.s[start:l.pos]
			if g.PhysicalCount() > MaxGroupDice {
				return token{}, l.errorf("%s needs %d dice, more than %d", g.Text, g.PhysicalCount(), MaxGroupDice)
			}
			if g.HasKeep() && g.Keep.Count > g.PhysicalCount() {
				return token{}, l.errorf("cannot keep %d of %d dice", g.Keep.Count, g.PhysicalCount())
			}
			if c := l.peek(); c != 0 && c != '+' && c != '-' && c != ')' {
				return token{}, l.errorf("unexpected %q after %s", c, g.Text)
			}
			return token{kind: tokDice, pos: start, group: g}, nil
		}
	}
}

func (l *lexer) comparator() (Comparator, error) {
	switch {
	case l.hasPrefix("<="):
		l.pos += 2
		return CompareLessOrEqual, nil
	case l.hasPrefix(">="):
		l.pos += 2
		return CompareGreaterOrEqual, nil
	case l.hasPrefix("<"):
		l.pos++
		return CompareLess, nil
	case l.hasPrefix(">"):
		l.pos++
		return CompareGreater, nil
	case l.hasPrefix("="):
		l.pos++
		return CompareEqual, nil
	}
	return CompareNone, l.errorf("expected comparator after ro")
}
