package gate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/platinummonkey/tenantgate/pkg/async"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
)

// ErrClosed is returned by Wait once the gate is closed before resolving
var ErrClosed = errors.New("gate closed")

// Input is everything a decision depends on
type Input struct {
	User      *rbac.User
	Token     string
	CompanyID string
	Roles     []string
	FullMatch bool
}

func (in Input) same(other Input) bool {
	return in.User == other.User &&
		in.Token == other.Token &&
		in.CompanyID == other.CompanyID &&
		in.FullMatch == other.FullMatch &&
		slices.Equal(in.Roles, other.Roles)
}

// Observer receives every decision change
type Observer func(Decision)

// Gate owns one decision. Each Update with a changed input starts a new
// generation; results of older generations are dropped when they arrive.
type Gate struct {
	checker rbac.Checker
	guard   string
	timeout time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	input      Input
	started    bool
	generation uint64
	decision   Decision
	pending    bool
	done       chan struct{}
	closed     bool
	nextID     int
	observers  map[int]Observer
}

// Option configures a Gate
type Option func(*Gate)

// WithGuard labels the gate in logs and metrics ("route", "component", ...)
func WithGuard(guard string) Option {
	return func(g *Gate) { g.guard = guard }
}

// WithTimeout bounds each asynchronous role check
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

// New creates a gate in the Pending state
func New(checker rbac.Checker, opts ...Option) *Gate {
	g := &Gate{
		checker:   checker,
		guard:     "component",
		logger:    observability.NopLogger(),
		done:      make(chan struct{}),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.logger = g.logger.WithField("guard", g.guard)
	return g
}

// Decision returns the current decision
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Subscribe registers an observer and returns its unsubscribe function
func (g *Gate) Subscribe(observer Observer) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.observers[id] = observer

	return func() {
		g.mu.Lock()
		delete(g.observers, id)
		g.mu.Unlock()
	}
}

// Update evaluates in. An unchanged input keeps the current decision; a
// changed one re-enters Pending and decides afresh. It returns the decision
// right after the update, which is Pending while a role check runs.
func (g *Gate) Update(in Input) Decision {
	g.mu.Lock()
	if g.closed {
		d := g.decision
		g.mu.Unlock()
		return d
	}
	if g.started && g.input.same(in) {
		d := g.decision
		g.mu.Unlock()
		return d
	}

	in.Roles = slices.Clone(in.Roles)
	g.started = true
	g.input = in
	g.generation++
	gen := g.generation

	var immediate Decision
	switch {
	case len(in.Roles) == 0:
		immediate = Granted
	case in.CompanyID == "" || in.User == nil || in.Token == "":
		immediate = Denied
	default:
		immediate = Pending
	}

	notify := g.transitionLocked(immediate)
	g.mu.Unlock()
	notify()

	if immediate == Pending {
		g.evaluate(gen, in)
	}
	return immediate
}

func (g *Gate) evaluate(gen uint64, in Input) {
	async.SafeGo(g.ctx, g.logger, async.Task{
		Name:    "gate evaluation",
		Timeout: g.timeout,
		Run: func(ctx context.Context) error {
			allowed := g.checker.CheckUserRoles(ctx, in.Token, in.User, in.CompanyID, in.Roles, in.FullMatch)
			if allowed {
				g.apply(gen, Granted)
			} else {
				g.apply(gen, Denied)
			}
			return nil
		},
		OnFailure: func(err error) {
			g.apply(gen, Denied)
		},
	})
}

// apply records the result of generation gen if it is still current
func (g *Gate) apply(gen uint64, d Decision) {
	g.mu.Lock()
	if g.closed || gen != g.generation {
		g.mu.Unlock()
		g.logger.WithField("decision", d.String()).Debug("discarding stale gate result")
		return
	}
	notify := g.transitionLocked(d)
	g.mu.Unlock()
	notify()
}

// transitionLocked moves to d and returns the observer notification to run
// after the lock is released
func (g *Gate) transitionLocked(d Decision) func() {
	switch {
	case d == Pending && !g.pending:
		g.pending = true
		g.metrics.GatePending(1)
	case d != Pending && g.pending:
		g.pending = false
		g.metrics.GatePending(-1)
	}

	if d.Resolved() {
		g.metrics.RecordGateDecision(d.String(), g.guard)
		select {
		case <-g.done:
		default:
			close(g.done)
		}
	} else {
		select {
		case <-g.done:
			g.done = make(chan struct{})
		default:
		}
	}

	changed := g.decision != d
	g.decision = d
	if !changed {
		return func() {}
	}

	observers := make([]Observer, 0, len(g.observers))
	for _, o := range g.observers {
		observers = append(observers, o)
	}
	return func() {
		for _, o := range observers {
			o(d)
		}
	}
}

// Wait blocks until the gate resolves, ctx ends or the gate is closed
func (g *Gate) Wait(ctx context.Context) (Decision, error) {
	for {
		g.mu.Lock()
		d, done, closed := g.decision, g.done, g.closed
		g.mu.Unlock()

		if d.Resolved() {
			return d, nil
		}
		if closed {
			return d, ErrClosed
		}

		select {
		case <-done:
		case <-ctx.Done():
			return Pending, ctx.Err()
		}
	}
}

// Close stops the gate: in-flight checks are cancelled, their results are
// dropped and observers are no longer called
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.cancel()
	g.observers = map[int]Observer{}
	if g.pending {
		g.pending = false
		g.metrics.GatePending(-1)
	}
	select {
	case <-g.done:
	default:
		close(g.done)
	}
}
