package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
)

type activeSeriesLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type seriesGenerator interface {
	Generate(ctx context.Context, seriesID string, req dto.GenerateRequest) (*dto.GenerationResult, error)
}

// SweeperService periodically runs generation over every active series so
// watermarks keep pace with the calendar even when nobody calls the API.
// Per-series locking makes concurrent sweeps and manual runs safe.
type SweeperService struct {
	series    activeSeriesLister
	generator seriesGenerator
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSweeperService wires sweeper dependencies.
func NewSweeperService(series activeSeriesLister, generator seriesGenerator, interval time.Duration, logger *zap.Logger) *SweeperService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperService{series: series, generator: generator, interval: interval, logger: logger}
}

// Start launches the sweep loop. Safe to call once.
func (s *SweeperService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true
	go s.loop(ctx)
	s.logger.Info("generation sweeper started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for the current sweep to finish.
func (s *SweeperService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.mu.Unlock()
	<-done
	s.logger.Info("generation sweeper stopped")
}

func (s *SweeperService) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one generation pass over every active series. Failures are
// logged and do not stop the remaining series.
func (s *SweeperService) Sweep(ctx context.Context) {
	ids, err := s.series.ListActiveIDs(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list active series", zap.Error(err))
		return
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		result, err := s.generator.Generate(ctx, id, dto.GenerateRequest{})
		if err != nil {
			s.logger.Warn("sweep generation failed", zap.String("series_id", id), zap.Error(err))
			continue
		}
		if result.Created() > 0 {
			s.logger.Info("sweep generated occurrences",
				zap.String("series_id", id),
				zap.Int("confirmed", result.CreatedConfirmed),
				zap.Int("conflicted", result.CreatedConflicted),
			)
		}
	}
}
