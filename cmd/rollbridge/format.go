package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/rollbridge/internal/session"
)

// formatResult renders a completed roll as one line of game log.
func formatResult(res session.Result) string {
	var b strings.Builder
	b.WriteString(res.Roll.Label())
	b.WriteString("  ")

	switch {
	case res.TimedOut:
		fmt.Fprintf(&b, "%s: no values from roller", res.Expression.Raw)
		return b.String()
	case errors.Is(res.Outcome.Err, session.ErrAbandoned):
		fmt.Fprintf(&b, "%s: abandoned", res.Expression.Raw)
		return b.String()
	case res.Outcome.Reconciled:
		b.WriteString(res.Outcome.Roll.String())
	default:
		fmt.Fprintf(&b, "%s = %d [unreconciled: %v]", res.Expression.Raw, res.Total(), res.Outcome.Err)
	}

	var notes []string
	if res.Expression.IsAdvantage() {
		notes = append(notes, "advantage")
	}
	if res.Expression.IsDisadvantage() {
		notes = append(notes, "disadvantage")
	}
	if res.CritHit {
		notes = append(notes, "critical hit")
	}
	if res.Critical {
		notes = append(notes, "critical damage")
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}
	return b.String()
}
