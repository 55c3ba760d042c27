package scheduler

import (
	"context"
	"sync"

	"bybitnotifier/internal/metrics"
	"bybitnotifier/internal/report"
	"bybitnotifier/pkg/bybit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CycleResult records what one cycle fetched and whether the message went out.
type CycleResult struct {
	ID           string
	Report       report.Report
	Message      string
	BalanceErr   error
	PositionsErr error
	ClosedPnlErr error
	SendErr      error
}

// RunOnce fetches, formats and sends one report. Fetch failures are logged
// and replaced by placeholders; the message is always built and sent.
func (s *Scheduler) RunOnce(ctx context.Context) CycleResult {
	res := CycleResult{ID: uuid.NewString()}
	log := s.logger.With(zap.String("cycle_id", res.ID))
	start := s.now()

	var (
		balance   float64
		positions []bybit.Item
		closedPnl []bybit.Item
	)

	// Fetches are independent; each keeps its own error and none cancels the others.
	fetchCtx, cancel := s.stageContext(ctx)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		balance, res.BalanceErr = s.account.GetBalance(fetchCtx)
	}()
	go func() {
		defer wg.Done()
		positions, res.PositionsErr = s.account.GetPositions(fetchCtx, s.opts.PositionsLimit)
	}()
	go func() {
		defer wg.Done()
		closedPnl, res.ClosedPnlErr = s.account.GetClosedPnl(fetchCtx, s.opts.ClosedPnlLimit)
	}()
	wg.Wait()
	cancel()

	if res.BalanceErr != nil {
		s.fetchFailed(log, "balance", res.BalanceErr)
	}
	if res.PositionsErr != nil {
		s.fetchFailed(log, "positions", res.PositionsErr)
		positions = nil
	}
	if res.ClosedPnlErr != nil {
		s.fetchFailed(log, "closed_pnl", res.ClosedPnlErr)
		closedPnl = nil
	}

	res.Report = report.Build(report.Input{
		AccountLabel: s.opts.AccountLabel,
		Timeframe:    s.opts.Timeframe,
		Balance:      balance,
		BalanceErr:   res.BalanceErr,
		Positions:    positions,
		ClosedPnl:    closedPnl,
		ClosedLimit:  s.opts.ClosedPnlLimit,
		Now:          s.now(),
	})
	s.skipped(log, bybit.FieldClosedPnl, res.Report.ClosedPnl.Skipped)
	s.skipped(log, bybit.FieldUnrealisedPnl, res.Report.CurrentPnl.Skipped)
	res.Message = res.Report.Message()

	sendCtx, cancel := s.stageContext(ctx)
	res.SendErr = s.notifier.Send(sendCtx, res.Message)
	cancel()

	end := s.now()
	s.cycles.Add(1)
	s.lastCycle.Store(end.UnixNano())
	s.metrics.CycleDuration.Observe(end.Sub(start).Seconds())
	s.metrics.LastCycle.Set(float64(end.Unix()))

	if res.SendErr != nil {
		s.metrics.Cycles.WithLabelValues(metrics.ResultSendFailed).Inc()
		log.Error("failed to send notification", zap.Error(res.SendErr))
		return res
	}

	s.metrics.Cycles.WithLabelValues(metrics.ResultSent).Inc()
	log.Info("notification sent",
		zap.String("balance", res.Report.Balance),
		zap.Int("open_positions", res.Report.OpenPositions),
		zap.String("closed_pnl", res.Report.ClosedPnl.Total.StringFixed(2)),
		zap.String("current_pnl", res.Report.CurrentPnl.Total.StringFixed(2)),
		zap.Duration("took", end.Sub(start)),
	)
	return res
}

func (s *Scheduler) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.StageTimeout)
}

func (s *Scheduler) fetchFailed(log *zap.Logger, fetch string, err error) {
	s.metrics.FetchFailures.WithLabelValues(fetch).Inc()
	log.Warn("fetch failed, using placeholder", zap.String("fetch", fetch), zap.Error(err))
}

func (s *Scheduler) skipped(log *zap.Logger, field string, n int) {
	if n == 0 {
		return
	}
	s.metrics.SkippedItems.WithLabelValues(field).Add(float64(n))
	log.Warn("skipped records without a numeric value", zap.String("field", field), zap.Int("count", n))
}
