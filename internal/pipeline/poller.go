package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
)

// ReportFetcher produces a Report for a named coordinate. *Fetcher implements it.
type ReportFetcher interface {
	FetchReport(ctx context.Context, location string, coord domain.Coordinate) (domain.Report, error)
}

// Publisher delivers reports to a sink.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Poller fetches a fixed set of locations on a cron schedule and publishes
// the reports.
type Poller struct {
	fetcher   ReportFetcher
	publisher Publisher
	locations []domain.Location
	schedule  string
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	cron      *cron.Cron
	entry     cron.EntryID
	immediate sync.WaitGroup // ticks started by PollNow
}

// NewPoller creates a Poller. schedule uses robfig/cron syntax, e.g. "@every 15m".
func NewPoller(f ReportFetcher, p Publisher, locations []domain.Location, schedule string, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		fetcher:   f,
		publisher: p,
		locations: locations,
		schedule:  schedule,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules polling until Stop is called. Ticks run with ctx, so
// cancelling it ends the work of every later tick. A tick that is still
// running when the next one fires causes that one to be skipped.
func (p *Poller) Start(ctx context.Context) error {
	logger := cronLogger{p.logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	id, err := c.AddFunc(p.schedule, func() { p.Poll(ctx) })
	if err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", p.schedule, err)
	}

	p.cron = c
	p.entry = id
	c.Start()
	p.metrics.PollerRunning.Set(1)
	p.logger.Info("poller started", "schedule", p.schedule, "locations", len(p.locations))
	return nil
}

// PollNow runs one tick right away through the same job chain as scheduled
// ticks, so it is skipped if a tick is already running. It does not block.
// Start must have been called.
func (p *Poller) PollNow() {
	if p.cron == nil {
		return
	}
	job := p.cron.Entry(p.entry).WrappedJob
	if job == nil {
		return
	}
	p.immediate.Add(1)
	go func() {
		defer p.immediate.Done()
		job.Run()
	}()
}

// Stop halts the schedule and waits for running ticks, scheduled or started
// by PollNow, to finish or ctx to end.
func (p *Poller) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	cronDone := p.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		p.immediate.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("poller stop timed out", "error", ctx.Err())
	}
	p.metrics.PollerRunning.Set(0)
	p.logger.Info("poller stopped")
}

// Poll fetches and publishes every location once, sequentially. Failures are
// logged and counted; the remaining locations are still processed. It
// returns the number of reports published.
func (p *Poller) Poll(ctx context.Context) int {
	p.metrics.PollTicks.Inc()

	published := 0
	for _, loc := range p.locations {
		if ctx.Err() != nil {
			break
		}
		report, err := p.fetcher.FetchReport(ctx, loc.Name, loc.Coordinate)
		if err != nil {
			// Already logged by the fetcher.
			continue
		}
		if err := p.publisher.Publish(ctx, report); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Error("publish report failed", "location", loc.Name, "station", report.Station.Identifier, "error", err)
			continue
		}
		p.metrics.ReportsPublished.Inc()
		published++
	}

	if published > 0 {
		p.ready.Store(true)
	}
	p.logger.Debug("poll finished", "locations", len(p.locations), "published", published)
	return published
}

// CheckReadiness returns nil once at least one report has been published.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not published any reports yet")
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
