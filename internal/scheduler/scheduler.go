// Package scheduler runs the report cycle on a fixed period.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bybitnotifier/internal/metrics"
	"bybitnotifier/pkg/bybit"

	"go.uber.org/zap"
)

// AccountReader is satisfied by *account.Service.
type AccountReader interface {
	GetBalance(ctx context.Context) (float64, error)
	GetPositions(ctx context.Context, limit int) ([]bybit.Item, error)
	GetClosedPnl(ctx context.Context, limit int) ([]bybit.Item, error)
}

// Notifier is satisfied by *telegram.Client.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Options struct {
	Interval       time.Duration // time between cycles; the first cycle runs one Interval after Start
	StageTimeout   time.Duration // bound for the fetch stage and, separately, for the send
	PositionsLimit int
	ClosedPnlLimit int
	AccountLabel   string
	Timeframe      string
}

var ErrAlreadyRunning = errors.New("scheduler already running")

type Scheduler struct {
	opts     Options
	account  AccountReader
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	cycles    atomic.Int64
	lastCycle atomic.Int64 // unix nanoseconds, 0 before the first cycle
}

func New(opts Options, account AccountReader, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("scheduler interval must be positive")
	}
	if account == nil || notifier == nil || m == nil {
		return nil, errors.New("scheduler needs an account reader, a notifier and metrics")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		opts:     opts,
		account:  account,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start launches the periodic loop. Cycles never overlap: the next tick is
// only observed after the current cycle returns.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}(s.done)

	s.logger.Info("scheduler started", zap.Duration("interval", s.opts.Interval))
	return nil
}

// Stop cancels the loop, including an in-flight cycle, and waits for it to
// exit or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Cycles is the number of cycles run so far.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// LastCycle is when the last cycle finished, zero if none has.
func (s *Scheduler) LastCycle() time.Time {
	n := s.lastCycle.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
