package dice

import "fmt"

// HostRoll is the external roller's own account of a roll: the faces it rolled
// and the total and breakdown it computed itself.
type HostRoll struct {
	Values FaceValues
	Total  int
	Text   string
}

// Outcome is what a completed roll reports. When Reconciled is false, Roll is the
// zero value, Err says why, and Host is returned exactly as received.
type Outcome struct {
	Host       HostRoll
	Roll       ReconciledRoll
	Reconciled bool
	Err        error
}

// Total returns the reconciled total, or the host's total when reconciliation failed.
func (o Outcome) Total() int {
	if o.Reconciled {
		return o.Roll.Total
	}
	return o.Host.Total
}

// Resolve reconciles host against expr. It never fails: any mismatch, including
// a panic while reconciling, degrades to an Outcome carrying the host roll
// unmodified, because the dice have already been rolled and must be reported.
//
// Postcondition: out.Host == host; out.Reconciled == (out.Err == nil).
func Resolve(expr ParsedExpression, host HostRoll, crit CritPolicy) (out Outcome) {
	out.Host = host
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Host: host, Err: fmt.Errorf("%w: %v", ErrReconciliationMismatch, r)}
		}
	}()

	roll, err := Reconcile(expr, host.Values, crit)
	if err != nil {
		out.Err = err
		return out
	}
	out.Roll = roll
	out.Reconciled = true
	return out
}
