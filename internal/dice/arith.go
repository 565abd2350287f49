package dice

import "fmt"

// EvaluateSum evaluates a substituted expression: non-negative integer literals
// combined with '+', '-' and parentheses. Nothing else is accepted.
//
// Postcondition: Returns the integer value, or an error wrapping
// ErrReconciliationMismatch when s is not a plain signed sum.
func EvaluateSum(s string) (int, error) {
	toks, err := lex(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReconciliationMismatch, err)
	}
	p := &parser{toks: toks}
	sum, err := p.parseSum()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReconciliationMismatch, err)
	}
	if p.pos != len(p.toks) || len(p.groups) > 0 {
		return 0, fmt.Errorf("%w: %q is not a plain sum", ErrReconciliationMismatch, s)
	}
	return eval(sum)
}
