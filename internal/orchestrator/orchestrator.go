// Package orchestrator drives one inspection run: it walks the URL set in
// fixed-size batches, inspects each URL sequentially, and hands every
// completed batch to the active sink.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/sink"
)

// ErrInterrupted is returned when the run context is cancelled before every
// URL was inspected. Rows gathered up to that point are still finalized.
var ErrInterrupted = errors.New("inspection run interrupted")

// Config controls batching and pacing.
type Config struct {
	// BatchSize is the maximum number of rows handed to a sink at once.
	BatchSize int
	// Delay is slept after every inspection call, including failed ones.
	Delay time.Duration
}

// RowInspector turns a URL into a row. It must not fail.
type RowInspector interface {
	Inspect(ctx context.Context, url string) inspection.Row
}

// RemoteOpener creates the remote sink for a run. It is only called once the
// URL set is known to be non-empty.
type RemoteOpener func(ctx context.Context) (sink.Sink, error)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Observer receives run events, typically a metrics recorder.
type Observer interface {
	ObserveInspection(failed bool)
	ObserveSinkWrite(sink string, rows int, err error)
	ObserveFailover()
}

// PauseFunc blocks for d or until ctx is done.
type PauseFunc func(ctx context.Context, d time.Duration) error

// Summary describes a finished run.
type Summary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Total       int       `json:"total"`
	Inspected   int       `json:"inspected"`
	Errors      int       `json:"errors"`
	Batches     int       `json:"batches"`
	Sink        sink.Kind `json:"sink,omitempty"`
	FailedOver  bool      `json:"failed_over"`
	Interrupted bool      `json:"interrupted"`
	Artifact    string    `json:"artifact,omitempty"`
}

// Orchestrator runs the inspection pipeline.
type Orchestrator struct {
	cfg       Config
	inspector RowInspector
	remote    RemoteOpener
	local     sink.Sink
	clock     Clock
	ids       IDGenerator
	observer  Observer
	pause     PauseFunc
	logger    *zap.Logger
}

// New constructs an Orchestrator. remote may be nil, in which case the run
// starts on the local sink. observer and logger may be nil.
func New(
	cfg Config,
	inspector RowInspector,
	remote RemoteOpener,
	local sink.Sink,
	clock Clock,
	ids IDGenerator,
	observer Observer,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		inspector: inspector,
		remote:    remote,
		local:     local,
		clock:     clock,
		ids:       ids,
		observer:  observer,
		pause:     Sleep,
		logger:    logger,
	}
}

// WithPause replaces the inter-call pause, mainly for tests.
func (o *Orchestrator) WithPause(p PauseFunc) *Orchestrator {
	if p != nil {
		o.pause = p
	}
	return o
}

// Run inspects urls in order and returns the run summary. An empty URL set
// returns immediately without touching any sink.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (Summary, error) {
	if o.inspector == nil || o.local == nil {
		return Summary{}, errors.New("orchestrator requires an inspector and a local sink")
	}
	runID, err := o.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := Summary{
		RunID:     runID,
		StartedAt: o.clock.Now(),
		Total:     len(urls),
	}
	logger := o.logger.With(zap.String("run_id", summary.RunID))

	if len(urls) == 0 {
		logger.Info("No URLs to inspect")
		summary.FinishedAt = o.clock.Now()
		return summary, nil
	}

	// Sink I/O outlives cancellation so that rows already gathered are flushed.
	sinkCtx := context.WithoutCancel(ctx)
	state := o.openSink(sinkCtx, logger)

	var all []inspection.Row
	batches := Partition(urls, o.cfg.BatchSize)
	logger.Info("Starting inspection run",
		zap.Int("urls", len(urls)),
		zap.Int("batches", len(batches)),
		zap.String("sink", string(state.kind())),
	)

	interrupted := false
	for i, batch := range batches {
		batchRows := make([]inspection.Row, 0, len(batch))
		for _, url := range batch {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			row := o.inspector.Inspect(ctx, url)
			if ctx.Err() != nil {
				// The call was cut short; its row says nothing about the URL.
				interrupted = true
				break
			}
			all = append(all, row)
			batchRows = append(batchRows, row)
			summary.Inspected++
			if row.Failed() {
				summary.Errors++
			}
			o.observer.ObserveInspection(row.Failed())

			if err := o.pause(ctx, o.cfg.Delay); err != nil {
				interrupted = true
				break
			}
		}

		if len(batchRows) > 0 {
			state.append(sinkCtx, batchRows, all)
			summary.Batches++
			logger.Info("Batch complete",
				zap.Int("batch", i+1),
				zap.Int("rows", len(batchRows)),
				zap.String("sink", string(state.kind())),
			)
		}
		if interrupted {
			logger.Warn("Run interrupted", zap.Int("inspected", summary.Inspected), zap.Int("total", summary.Total))
			break
		}
	}

	summary.Sink = state.kind()
	summary.FailedOver = state.failedOver
	summary.Interrupted = interrupted

	artifact, err := state.finalize(sinkCtx)
	summary.FinishedAt = o.clock.Now()
	if err != nil {
		return summary, fmt.Errorf("finalize %s sink: %w", summary.Sink, err)
	}
	summary.Artifact = artifact
	logger.Info("Inspection run finished",
		zap.Int("inspected", summary.Inspected),
		zap.Int("errors", summary.Errors),
		zap.String("sink", string(summary.Sink)),
		zap.Bool("failed_over", summary.FailedOver),
		zap.String("artifact", artifact),
	)

	if interrupted {
		return summary, ErrInterrupted
	}
	return summary, nil
}

func (o *Orchestrator) openSink(ctx context.Context, logger *zap.Logger) *sinkState {
	state := &sinkState{
		local:    o.local,
		active:   o.local,
		observer: o.observer,
		logger:   logger,
	}
	if o.remote == nil {
		logger.Info("Remote sink disabled; writing to local sink")
		return state
	}
	remote, err := o.remote(ctx)
	if err != nil {
		logger.Warn("Failed to open remote sink; writing to local sink", zap.Error(err))
		return state
	}
	state.active = remote
	return state
}

// Partition splits urls into consecutive slices of at most size elements.
// The slices share urls' backing array.
func Partition(urls []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	out := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		out = append(out, urls[start:end:end])
	}
	return out
}

// Sleep waits for d, returning early with ctx's error if it is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) ObserveInspection(bool)              {}
func (nopObserver) ObserveSinkWrite(string, int, error) {}
func (nopObserver) ObserveFailover()                    {}
