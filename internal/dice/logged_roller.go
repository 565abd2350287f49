package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged rolling and reconciliation.
// Reconciliations are logged at debug level with expression, substituted
// expression, kept values, and total; fallbacks are logged at warn level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each result to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the randomness provider used for local rolls.
func (r *Roller) Source() Source {
	return r.src
}

// Roll rolls expr locally and logs the result at debug level.
//
// Precondition: expr must come from Parse.
// Postcondition: result logged; returns ReconciledRoll or error.
func (r *Roller) Roll(expr ParsedExpression) (ReconciledRoll, error) {
	result, err := Roll(expr, r.src)
	if err != nil {
		return ReconciledRoll{}, err
	}
	r.logRoll(result)
	return result, nil
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a ReconciledRoll or a parse/reconcile error.
func (r *Roller) RollExpr(expr string) (ReconciledRoll, error) {
	e, err := Parse(expr)
	if err != nil {
		return ReconciledRoll{}, err
	}
	return r.Roll(e)
}

// Resolve reconciles a host roll against expr and logs the outcome.
//
// Postcondition: identical to the package-level Resolve.
func (r *Roller) Resolve(expr ParsedExpression, host HostRoll, crit CritPolicy) Outcome {
	out := Resolve(expr, host, crit)
	if !out.Reconciled {
		r.logger.Warn("reconciliation failed, reporting host roll",
			zap.String("expression", expr.Raw),
			zap.Int("host_total", host.Total),
			zap.String("host_text", host.Text),
			zap.Error(out.Err),
		)
		return out
	}
	r.logRoll(out.Roll)
	return out
}

func (r *Roller) logRoll(result ReconciledRoll) {
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.String("substituted", result.Substituted),
		zap.Ints("values", result.Values),
		zap.Int("constant", result.Constant),
		zap.Int("total", result.Total),
		zap.Bool("critical", result.Critical),
		zap.Bool("complex", result.Complex),
	)
}
