// internal/scrape/orchestrator.go
package scrape

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tomanasmo/finnmonitor/internal/config"
	"github.com/tomanasmo/finnmonitor/internal/metrics"
	"github.com/tomanasmo/finnmonitor/internal/status"
)

// Orchestrator drives the paginator over every configured base search URL in
// an endless cycle. The process is meant to be immortal: a failed cycle sets
// the Error flag, backs off and starts over.
type Orchestrator struct {
	paginator    *Paginator
	statusStore  status.Store
	urlsFile     string
	cycleSleep   time.Duration
	errorBackoff time.Duration
	pageDelay    DelayPolicy
	log          *zap.SugaredLogger
}

// NewOrchestrator wires the scrape loop.
func NewOrchestrator(paginator *Paginator, statusStore status.Store, cfg config.ScrapingConfig, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		paginator:    paginator,
		statusStore:  statusStore,
		urlsFile:     cfg.URLsFile,
		cycleSleep:   time.Duration(cfg.CycleSleepSeconds) * time.Second,
		errorBackoff: time.Duration(cfg.ErrorBackoffSeconds) * time.Second,
		pageDelay: RandomDelay{
			Min: time.Duration(cfg.DelayMinSeconds) * time.Second,
			Max: time.Duration(cfg.DelayMaxSeconds) * time.Second,
		},
		log: log,
	}
}

// Run loops until ctx is cancelled. An empty URL list and a failed cycle
// both retry after the short backoff; a completed cycle rests for the full
// cycle sleep.
func (o *Orchestrator) Run(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := o.runCycle(ctx)
		switch {
		case err != nil:
			o.log.Errorw("scrape cycle failed", "error", err)
			o.setStatus(status.Error)
			sleep(ctx, o.errorBackoff)
		case n == 0:
			sleep(ctx, o.errorBackoff)
		default:
			sleep(ctx, o.cycleSleep)
		}
	}
}

// runCycle performs one pass over the configured URLs and reports how many
// were driven. A panic anywhere in the cycle is converted into an error so
// the outer loop survives it.
func (o *Orchestrator) runCycle(ctx context.Context) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator: panic in cycle: %v", r)
		}
	}()

	o.setStatus(status.Running)

	urls, err := config.LoadURLs(o.urlsFile)
	if err != nil {
		return 0, err
	}
	if len(urls) == 0 {
		o.log.Warnw("no search URLs configured", "file", o.urlsFile)
		o.setStatus(status.Idle)
		return 0, nil
	}

	for _, baseURL := range urls {
		if ctx.Err() != nil {
			break
		}
		// A drained or failed base URL is final for this cycle either way;
		// failures are retried on the next cycle.
		if err := o.paginator.Drain(ctx, baseURL); err != nil {
			o.log.Warnw("search not drained", "url", baseURL, "error", err)
		}
		o.pageDelay.Wait(ctx)
	}

	o.setStatus(status.Idle)
	metrics.CyclesCompleted.Inc()
	return len(urls), nil
}

func (o *Orchestrator) setStatus(s status.State) {
	if err := o.statusStore.Set(status.WorkerScraper, s); err != nil {
		o.log.Warnw("failed to write scraper status", "state", s, "error", err)
	}
}
