package dice

import (
	"errors"
	"fmt"
)

type termKind int

const (
	termNumber termKind = iota
	termDice
	termGroup
)

// term is one signed operand of a sum. A parenthesized sub-sum is a termGroup.
type term struct {
	kind  termKind
	neg   bool
	pos   int
	value int    // termNumber
	dice  int    // termDice: index into the parser's groups
	terms []term // termGroup
}

// parser is a recursive-descent parser over the grammar
//
//	sum     = [sign] operand { sign [sign] operand }
//	operand = number | dice | "(" sum ")"
//
// where a second sign directly after an operator is a unary sign on the operand.
type parser struct {
	toks   []token
	pos    int
	groups []DiceGroup
}

// Parse normalizes and parses a dice expression.
//
// Precondition: modifier shorthand has already been substituted.
// Postcondition: Returns a ParsedExpression whose Groups preserve left-to-right
// order, or an error wrapping ErrInvalidExpression. Parsing the same input twice
// yields structurally identical values.
func Parse(raw string) (ParsedExpression, error) {
	norm, err := Normalize(raw)
	if err != nil {
		return ParsedExpression{}, err
	}
	if norm == "" {
		return ParsedExpression{}, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}

	toks, err := lex(norm)
	if err != nil {
		return ParsedExpression{}, err
	}
	p := &parser{toks: toks}
	sum, err := p.parseSum()
	if err != nil {
		return ParsedExpression{}, fmt.Errorf("%w in %q", err, norm)
	}
	if p.pos != len(p.toks) {
		return ParsedExpression{}, fmt.Errorf("%w: unexpected token at offset %d in %q", ErrInvalidExpression, p.toks[p.pos].pos, norm)
	}

	if len(p.groups) == 0 && !isLoneConstant(toks) {
		return ParsedExpression{}, fmt.Errorf("%w: no dice in %q", ErrInvalidExpression, norm)
	}

	var constants []ConstantTerm
	collect(sum, false, p.groups, &constants)

	return ParsedExpression{
		Raw:       norm,
		Groups:    p.groups,
		Constants: constants,
		Constant:  FoldConstants(constants),
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level values.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) ParsedExpression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// isLoneConstant reports whether toks is a single integer with at most one sign.
func isLoneConstant(toks []token) bool {
	switch len(toks) {
	case 1:
		return toks[0].kind == tokNumber
	case 2:
		return (toks[0].kind == tokPlus || toks[0].kind == tokMinus) && toks[1].kind == tokNumber
	}
	return false
}

// collect walks a parsed sum, records each dice group's effective sign, and
// appends every literal with its effective sign.
func collect(terms []term, neg bool, groups []DiceGroup, out *[]ConstantTerm) {
	for _, t := range terms {
		n := neg != t.neg
		switch t.kind {
		case termNumber:
			v := t.value
			if n {
				v = -v
			}
			*out = append(*out, ConstantTerm{Value: v, Offset: t.pos})
		case termDice:
			groups[t.dice].Negative = n
		case termGroup:
			collect(t.terms, n, groups, out)
		}
	}
}

var errSyntax = errors.New("syntax error")

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// sign consumes an optional '+' or '-' and reports whether it was '-'.
func (p *parser) sign() (neg, ok bool) {
	t, more := p.peek()
	if !more {
		return false, false
	}
	switch t.kind {
	case tokPlus:
		p.pos++
		return false, true
	case tokMinus:
		p.pos++
		return true, true
	}
	return false, false
}

func (p *parser) parseSum() ([]term, error) {
	neg, _ := p.sign()
	first, err := p.parseOperand(neg)
	if err != nil {
		return nil, err
	}
	terms := []term{first}
	for {
		opNeg, ok := p.sign()
		if !ok {
			return terms, nil
		}
		unary, _ := p.sign()
		t, err := p.parseOperand(opNeg != unary)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
}

func (p *parser) parseOperand(neg bool) (term, error) {
	t, ok := p.peek()
	if !ok {
		return term{}, fmt.Errorf("%w: %w: unexpected end of expression", ErrInvalidExpression, errSyntax)
	}
	p.pos++
	switch t.kind {
	case tokNumber:
		return term{kind: termNumber, neg: neg, pos: t.pos, value: t.value}, nil
	case tokDice:
		p.groups = append(p.groups, t.group)
		return term{kind: termDice, neg: neg, pos: t.pos, dice: len(p.groups) - 1}, nil
	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return term{}, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return term{}, fmt.Errorf("%w: %w: missing ')' for '(' at offset %d", ErrInvalidExpression, errSyntax, t.pos)
		}
		p.pos++
		return term{kind: termGroup, neg: neg, pos: t.pos, terms: inner}, nil
	}
	return term{}, fmt.Errorf("%w: %w: unexpected token at offset %d", ErrInvalidExpression, errSyntax, t.pos)
}

// eval sums a parsed term list. Dice terms are not evaluable.
func eval(terms []term) (int, error) {
	total := 0
	for _, t := range terms {
		var v int
		switch t.kind {
		case termNumber:
			v = t.value
		case termGroup:
			sub, err := eval(t.terms)
			if err != nil {
				return 0, err
			}
			v = sub
		default:
			return 0, fmt.Errorf("%w: unresolved dice at offset %d", ErrReconciliationMismatch, t.pos)
		}
		if t.neg {
			v = -v
		}
		total += v
	}
	return total, nil
}
