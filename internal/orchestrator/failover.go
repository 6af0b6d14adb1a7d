package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/sink"
)

// sinkState holds the active sink of a run. The only transition is from a
// remote sink to the local one, and it never reverses.
type sinkState struct {
	active     sink.Sink
	local      sink.Sink
	failedOver bool
	observer   Observer
	logger     *zap.Logger
}

func (s *sinkState) kind() sink.Kind {
	return s.active.Kind()
}

// append writes batch to the active sink. If that fails on the remote sink,
// every row of the run so far (all) is handed to the local sink instead.
func (s *sinkState) append(ctx context.Context, batch, all []inspection.Row) {
	err := s.active.Append(ctx, batch)
	s.observer.ObserveSinkWrite(string(s.active.Kind()), len(batch), err)
	if err == nil {
		return
	}
	if s.active == s.local {
		// Local appends only buffer; nothing left to fall back to.
		s.logger.Error("Local sink rejected rows", zap.Int("rows", len(batch)), zap.Error(err))
		return
	}

	s.logger.Warn("Remote sink write failed; switching to local sink for the rest of the run",
		zap.Int("rows_rebuffered", len(all)),
		zap.Error(err),
	)
	s.active = s.local
	s.failedOver = true
	s.observer.ObserveFailover()

	replay := make([]inspection.Row, len(all))
	copy(replay, all)
	err = s.local.Append(ctx, replay)
	s.observer.ObserveSinkWrite(string(s.local.Kind()), len(replay), err)
	if err != nil {
		s.logger.Error("Local sink rejected re-buffered rows", zap.Error(err))
	}
}

func (s *sinkState) finalize(ctx context.Context) (string, error) {
	return s.active.Finalize(ctx)
}
