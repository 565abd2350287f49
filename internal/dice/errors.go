package dice

import "errors"

// ErrInvalidExpression is returned when an expression contains characters outside
// the dice grammar, or when it holds no dice group and is not a lone signed integer.
// Unsupported face counts and unknown suffixes fold into this error.
var ErrInvalidExpression = errors.New("dice: invalid expression")

// ErrReconciliationMismatch reports that rolled face values could not be aligned
// with a parsed expression, or that the substituted arithmetic did not evaluate.
//
// It never reaches callers of Resolve; Resolve degrades to the host's own result.
var ErrReconciliationMismatch = errors.New("dice: reconciliation mismatch")
