// Package session sequences rolls through an external roller: one roll is in
// flight at a time, later rolls queue behind it, a roll that outlives its
// timeout is abandoned, and a critical hit doubles the damage roll after it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/dice"
)

var (
	// ErrUnknownRoll is returned when values are delivered for a roll that is not in flight.
	ErrUnknownRoll = errors.New("session: roll is not in flight")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("session: closed")
	// ErrTimeout is the outcome error of a roll abandoned after its timeout.
	ErrTimeout = errors.New("session: timed out waiting for roll values")
	// ErrAbandoned is the outcome error of a roll discarded by Reset or Close.
	ErrAbandoned = errors.New("session: roll abandoned")
)

// Provider is the external die roller. Request asks for the dice in plan; the
// values arrive later through Session.Deliver with the same rollID.
type Provider interface {
	Request(ctx context.Context, rollID string, plan dice.Plan) error
}

// Recorder persists completed rolls.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}

// Recorders fans a result out to several recorders, joining their errors.
type Recorders []Recorder

// Record calls every recorder in order, even after one fails.
func (rs Recorders) Record(ctx context.Context, res Result) error {
	var errs []error
	for _, r := range rs {
		if err := r.Record(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Result is the completed (or abandoned) state of a submitted roll.
type Result struct {
	ID     string
	Entity string
	// Roll is the request as submitted.
	Roll command.Roll
	// Expression is what was planned, after any crit expansion.
	Expression dice.ParsedExpression
	Outcome    dice.Outcome
	// CritHit is set on an attack roll that scored a critical hit.
	CritHit bool
	// Critical is set on a damage roll that had the crit policy applied.
	Critical bool
	// TimedOut is set when the roller never answered; Outcome.Err is ErrTimeout.
	TimedOut bool
	// CompletedAt is when the outcome was determined.
	CompletedAt time.Time
}

// Total returns the reported total.
func (r Result) Total() int {
	return r.Outcome.Total()
}

// Options configures a Session.
type Options struct {
	// Entity names whose rolls these are, e.g. a character name.
	Entity string
	// Timeout bounds the wait for a roll's values.
	Timeout time.Duration
	// CritRange is the lowest kept d20 face that makes an attack roll critical.
	CritRange int
	// CritPolicy is applied to the damage roll after a crit; nil disables crits.
	CritPolicy dice.CritPolicy
	// Recorder, when non-nil, receives every result.
	Recorder Recorder
	// OnResult, when non-nil, is called with every result in completion order.
	OnResult func(Result)
}

// Ticket tracks one submitted roll.
type Ticket struct {
	ID   string
	done chan Result
}

// Done returns a channel that receives the roll's result once.
func (t *Ticket) Done() <-chan Result {
	return t.done
}

// Wait blocks until the roll's result is available or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-t.done:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// pending is a submitted roll waiting for, or holding, the in-flight slot.
type pending struct {
	ctx    context.Context
	ticket *Ticket
	roll   command.Roll
	expr   dice.ParsedExpression
	crit   dice.CritPolicy
	// delivered is set once values arrive; the roll then completes through Deliver.
	delivered bool
}

// Session is the explicit roll-session state: the queue, the in-flight roll,
// the timeout and the crit tracker. It is safe for concurrent use.
//
// Invariant: at most one roll is in flight; rolls are dispatched in submission order.
type Session struct {
	provider Provider
	roller   *dice.Roller
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	queue    []*pending
	inflight *pending
	crit     critTracker
	closed   bool
	timer    *rollTimer
}

// New creates a Session that requests dice from provider and reconciles them with roller.
//
// Precondition: provider, roller and logger must be non-nil; opts.Timeout > 0.
func New(provider Provider, roller *dice.Roller, opts Options, logger *zap.Logger) *Session {
	s := &Session{provider: provider, roller: roller, opts: opts, logger: logger}
	s.timer = newRollTimer(s.expire)
	return s
}

// Submit parses roll.Expression and queues it. The roll is requested from the
// provider as soon as no other roll is in flight.
//
// Postcondition: Returns a Ticket whose Done channel receives exactly one Result,
// or an error wrapping dice.ErrInvalidExpression or ErrClosed.
func (s *Session) Submit(ctx context.Context, roll command.Roll) (*Ticket, error) {
	expr, err := dice.Parse(roll.Expression)
	if err != nil {
		return nil, err
	}
	p := &pending{
		ctx:    context.WithoutCancel(ctx),
		ticket: &Ticket{ID: uuid.NewString(), done: make(chan Result, 1)},
		roll:   roll,
		expr:   expr,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.queue = append(s.queue, p)
	next := s.dispatchLocked()
	s.mu.Unlock()

	s.logger.Debug("roll queued",
		zap.String("roll_id", p.ticket.ID),
		zap.String("expression", expr.Raw),
		zap.String("roll_type", string(roll.RollType)),
	)
	s.request(next)
	return p.ticket, nil
}

// Roll submits roll and waits for its result.
func (s *Session) Roll(ctx context.Context, roll command.Roll) (Result, error) {
	ticket, err := s.Submit(ctx, roll)
	if err != nil {
		return Result{}, err
	}
	return ticket.Wait(ctx)
}

// Deliver hands the external roller's values for the in-flight roll to the
// session. Reconciliation never fails the delivery: a mismatch is reported in
// the Result's Outcome with the host roll unchanged.
//
// Postcondition: Returns ErrUnknownRoll when rollID is not in flight.
func (s *Session) Deliver(rollID string, host dice.HostRoll) error {
	s.mu.Lock()
	p := s.inflight
	if p == nil || p.ticket.ID != rollID || p.delivered {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRoll, rollID)
	}
	p.delivered = true
	s.timer.Stop()
	s.mu.Unlock()

	out := s.roller.Resolve(p.expr, host, p.crit)
	res := s.result(p, out)

	// p keeps the slot until its crit has been observed.
	var next *pending
	s.mu.Lock()
	if s.inflight == p {
		s.inflight = nil
		if s.critEnabled() {
			res.CritHit = s.crit.observe(p.roll, p.expr, out, s.opts.CritRange)
		}
		next = s.dispatchLocked()
	}
	s.mu.Unlock()

	s.finish(p, res)
	s.request(next)
	return nil
}

// Pending reports the in-flight roll ID (empty when idle) and the queue length.
func (s *Session) Pending() (inflight string, queued int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		inflight = s.inflight.ticket.ID
	}
	return inflight, len(s.queue)
}

// Reset abandons the in-flight and queued rolls and clears any pending crit.
//
// Postcondition: every abandoned ticket receives a Result with Outcome.Err == ErrAbandoned.
func (s *Session) Reset() {
	s.mu.Lock()
	dropped := s.resetLocked()
	s.mu.Unlock()
	s.abandon(dropped, ErrAbandoned)
}

// Close resets the session and rejects further submissions.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	dropped := s.resetLocked()
	s.mu.Unlock()
	s.abandon(dropped, ErrAbandoned)
}

func (s *Session) resetLocked() []*pending {
	s.timer.Stop()
	dropped := s.queue
	if s.inflight != nil && !s.inflight.delivered {
		dropped = append([]*pending{s.inflight}, dropped...)
	}
	s.inflight = nil
	s.queue = nil
	s.crit.reset()
	return dropped
}

func (s *Session) critEnabled() bool {
	return s.opts.CritPolicy != nil && s.opts.CritPolicy.Name() != dice.PolicyNone
}

// dispatchLocked moves the head of the queue into flight, applying a pending
// crit, and arms the timeout. It returns the dispatched roll or nil.
func (s *Session) dispatchLocked() *pending {
	if s.inflight != nil || len(s.queue) == 0 || s.closed {
		return nil
	}
	p := s.queue[0]
	s.queue = s.queue[1:]

	if s.crit.consume(p.roll) && s.critEnabled() {
		expanded, err := s.opts.CritPolicy.Expand(p.expr)
		if err != nil {
			s.logger.Warn("crit expansion failed, rolling unmodified",
				zap.String("expression", p.expr.Raw),
				zap.String("policy", s.opts.CritPolicy.Name()),
				zap.Error(err),
			)
		} else {
			p.expr = expanded
			p.crit = s.opts.CritPolicy
		}
	}

	s.inflight = p
	s.timer.Start(p.ticket.ID, s.opts.Timeout)
	return p
}

// request asks the provider for p's dice. A roll with no dice completes at once.
func (s *Session) request(p *pending) {
	if p == nil {
		return
	}
	plan := p.expr.Plan()
	if plan.Total() == 0 {
		host := dice.HostRoll{Values: dice.FaceValues{}, Total: p.expr.Constant, Text: p.expr.Raw}
		if err := s.Deliver(p.ticket.ID, host); err != nil {
			s.logger.Warn("completing constant roll", zap.String("roll_id", p.ticket.ID), zap.Error(err))
		}
		return
	}
	s.logger.Debug("requesting dice",
		zap.String("roll_id", p.ticket.ID),
		zap.String("plan", plan.String()),
	)
	if err := s.provider.Request(p.ctx, p.ticket.ID, plan); err != nil {
		s.logger.Warn("roll request failed", zap.String("roll_id", p.ticket.ID), zap.Error(err))
		s.fail(p.ticket.ID, fmt.Errorf("requesting dice: %w", err), false)
	}
}

// expire is the timeout callback for rollID.
func (s *Session) expire(rollID string) {
	s.fail(rollID, ErrTimeout, true)
}

// fail completes the in-flight roll rollID without values, clears any pending
// crit and moves on to the next queued roll.
func (s *Session) fail(rollID string, err error, timedOut bool) {
	s.mu.Lock()
	p := s.inflight
	if p == nil || p.ticket.ID != rollID || p.delivered {
		s.mu.Unlock()
		return
	}
	s.timer.Stop()
	s.inflight = nil
	s.crit.reset()
	next := s.dispatchLocked()
	s.mu.Unlock()

	if timedOut {
		s.logger.Warn("roll timed out, abandoning",
			zap.String("roll_id", rollID),
			zap.String("expression", p.expr.Raw),
			zap.Duration("timeout", s.opts.Timeout),
		)
	}
	res := s.result(p, dice.Outcome{Err: err})
	res.TimedOut = timedOut
	s.finish(p, res)
	s.request(next)
}

func (s *Session) abandon(dropped []*pending, err error) {
	for _, p := range dropped {
		s.finish(p, s.result(p, dice.Outcome{Err: err}))
	}
}

func (s *Session) result(p *pending, out dice.Outcome) Result {
	return Result{
		ID:          p.ticket.ID,
		Entity:      s.opts.Entity,
		Roll:        p.roll,
		Expression:  p.expr,
		Outcome:     out,
		Critical:    out.Reconciled && out.Roll.Critical,
		CompletedAt: time.Now(),
	}
}

// finish publishes res: the recorder first, then OnResult, then the ticket.
func (s *Session) finish(p *pending, res Result) {
	if s.opts.Recorder != nil && !errors.Is(res.Outcome.Err, ErrAbandoned) {
		if err := s.opts.Recorder.Record(p.ctx, res); err != nil {
			s.logger.Warn("recording roll failed", zap.String("roll_id", res.ID), zap.Error(err))
		}
	}
	if s.opts.OnResult != nil {
		s.opts.OnResult(res)
	}
	p.ticket.done <- res
}
