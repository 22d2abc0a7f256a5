package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/travelrates/storage"
)

var (
	errInvalidProvider = errors.New("invalid provider")
	errInvalidInterval = errors.New("invalid interval")
)

// Orchestrator runs source harvests, one at a time
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger

	q             iq.Queue[scheduledIngest]
	queryInterval time.Duration
	retryDelay    time.Duration
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		q:             iq.NewQueue[scheduledIngest](),
		queryInterval: time.Second,      // every second
		retryDelay:    10 * time.Minute, // sources are re-harvested daily
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// RunOnce harvests every provider in order and saves the harvests.
// A failing source is logged and skipped; it never stops the run
func (o *Orchestrator) RunOnce(ctx context.Context, providers ...Provider) []Summary {
	var (
		runID     = xid.New()
		summaries = make([]Summary, 0, len(providers))
	)

	o.logger.Info(
		"starting harvest run",
		"run_id", runID.String(),
		"sources", len(providers),
	)

	for _, p := range providers {
		if ctx.Err() != nil {
			summaries = append(summaries, Summary{
				Source: p.Name(),
				Err:    ctx.Err(),
			})

			continue
		}

		summary := o.ingestSource(ctx, p)
		summaries = append(summaries, summary)

		o.logSummary(runID, summary)
	}

	return summaries
}

// Register registers a new provider with the orchestrator.
// The provider is immediately queued up for execution
func (o *Orchestrator) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return errInvalidProvider
	}

	if p.Interval() <= 0 {
		return errInvalidInterval
	}

	id := xid.New()

	o.logger.Info(
		"registered new provider",
		"name", p.Name(),
		"id", id.String(),
	)

	// Schedule the job
	o.scheduleIngest(
		time.Now().UTC(),
		id,
		p,
	)

	return nil
}

// Start starts the provider orchestration service loop [BLOCKING].
// Due harvests run sequentially, on the loop itself
func (o *Orchestrator) Start(ctx context.Context) error {
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleIngest runs all jobs that are executable (due)
	handleIngest := func() {
		for ctx.Err() == nil {
			nextSI := o.nextIngest()
			if nextSI == nil {
				return // nothing is due
			}

			o.logger.Info(
				"running scheduled harvest",
				"name", nextSI.provider.Name(),
			)

			summary := o.ingestSource(ctx, nextSI.provider)
			o.logSummary(nextSI.providerID, summary)

			now := time.Now().UTC()

			if summary.Failed() {
				if ctx.Err() != nil {
					return
				}

				// Retry the harvest soon
				o.scheduleIngest(
					now.Add(o.retryDelay),
					nextSI.providerID,
					nextSI.provider,
				)

				continue
			}

			// Schedule a new harvest for this provider
			o.scheduleIngest(
				now.Add(nextSI.provider.Interval()),
				nextSI.providerID,
				nextSI.provider,
			)
		}
	}

	// Run the first set of due jobs (on boot)
	handleIngest()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleIngest()
		}
	}
}

// logSummary logs the outcome of a single source harvest
func (o *Orchestrator) logSummary(id xid.ID, summary Summary) {
	if summary.Failed() {
		o.logger.Error(
			"unable to harvest source",
			"id", id.String(),
			"source", summary.Source,
			"err", summary.Err,
		)

		return
	}

	o.logger.Info(
		"saved source harvest",
		"id", id.String(),
		"source", summary.Source,
		"tables", summary.Tables,
		"rates", summary.Rates,
		"exchange_rates", summary.ExchangeRates,
		"accommodations", summary.Accommodations,
	)
}

// scheduleIngest schedules a new provider harvest
func (o *Orchestrator) scheduleIngest(
	at time.Time,
	providerID xid.ID,
	provider Provider,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	futureSI := scheduledIngest{
		at:         at,
		providerID: providerID,
		provider:   provider,
	}

	o.q.Push(futureSI)
}

// nextIngest fetches the next due harvest job, as of the moment of calling
func (o *Orchestrator) nextIngest() *scheduledIngest {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, latest job is in the future
	}

	// Grab the next job
	nextSI := o.q.PopFront()

	return nextSI
}
