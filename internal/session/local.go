package session

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

// Deliverer accepts rolled values; *Session implements it.
type Deliverer interface {
	Deliver(rollID string, host dice.HostRoll) error
}

// LocalProvider rolls requested dice with a dice.Source in place of an external
// roller, delivering the values asynchronously the way a remote roller would.
// Like a grouped roller it knows nothing of keep or reroll rules: its own total
// is the plain sum of every die.
type LocalProvider struct {
	src    dice.Source
	logger *zap.Logger
	target Deliverer
}

// NewLocalProvider creates a LocalProvider rolling with src.
//
// Precondition: src and logger must be non-nil.
func NewLocalProvider(src dice.Source, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{src: src, logger: logger}
}

// Bind sets where rolled values are delivered. It must be called before the
// first Request.
func (p *LocalProvider) Bind(target Deliverer) {
	p.target = target
}

// Request rolls plan in a new goroutine and delivers the result to the bound target.
//
// Postcondition: Returns an error only when no target is bound.
func (p *LocalProvider) Request(ctx context.Context, rollID string, plan dice.Plan) error {
	if p.target == nil {
		return errors.New("local provider: no delivery target bound")
	}
	go func() {
		host := HostRollFor(plan, dice.RollPlan(plan, p.src))
		if ctx.Err() != nil {
			return
		}
		if err := p.target.Deliver(rollID, host); err != nil {
			p.logger.Warn("delivering local roll", zap.String("roll_id", rollID), zap.Error(err))
		}
	}()
	return nil
}

// HostRollFor builds the HostRoll a grouped roller reports for values: the sum
// of every die and a breakdown such as "9d20: 3+17 | 1d4: 2".
func HostRollFor(plan dice.Plan, values dice.FaceValues) dice.HostRoll {
	total := 0
	parts := make([]string, 0, len(plan))
	for _, faces := range plan.Faces() {
		rolled := values[faces]
		faceText := make([]string, len(rolled))
		for i, v := range rolled {
			total += v
			faceText[i] = strconv.Itoa(v)
		}
		parts = append(parts, strconv.Itoa(plan[faces])+"d"+strconv.Itoa(faces)+": "+strings.Join(faceText, "+"))
	}
	return dice.HostRoll{Values: values, Total: total, Text: strings.Join(parts, " | ")}
}
