package app

import (
	"context"
	"log/slog"
	"time"

	"tokenAggApp/internal/domain/useCases"
)

// refreshCyclesPerRateUpdate sets how often the reference rate is refreshed
// relative to full refreshes.
const refreshCyclesPerRateUpdate = 5

// Scheduler drives the aggregator on fixed intervals: full multi-source
// refreshes, periodic reference-rate updates, and lightweight snapshot
// broadcasts to websocket subscribers.
type Scheduler struct {
	aggregator        useCases.AggregatorService
	rateRefresher     interface{ RefreshReferenceRate(context.Context) }
	broadcaster       useCases.Broadcaster
	refreshInterval   time.Duration
	broadcastInterval time.Duration
}

// aggregatorWithRate is what the scheduler actually needs from the engine.
type aggregatorWithRate interface {
	useCases.AggregatorService
	RefreshReferenceRate(ctx context.Context)
}

func NewScheduler(aggregator aggregatorWithRate, broadcaster useCases.Broadcaster, refreshInterval, broadcastInterval time.Duration) *Scheduler {
	if refreshInterval <= 0 {
		refreshInterval = 2 * time.Minute
	}
	if broadcastInterval <= 0 {
		broadcastInterval = 15 * time.Second
	}
	return &Scheduler{
		aggregator:        aggregator,
		rateRefresher:     aggregator,
		broadcaster:       broadcaster,
		refreshInterval:   refreshInterval,
		broadcastInterval: broadcastInterval,
	}
}

// Run blocks until ctx is done, firing refreshes and broadcasts on their
// tickers. Refreshes never fail; partial source outages just shrink the
// refresh and get logged by the engine.
func (s *Scheduler) Run(ctx context.Context) error {
	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()
	broadcastTicker := time.NewTicker(s.broadcastInterval)
	defer broadcastTicker.Stop()

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return ctx.Err()
		case <-refreshTicker.C:
			cycle++
			if cycle%refreshCyclesPerRateUpdate == 0 {
				s.rateRefresher.RefreshReferenceRate(ctx)
			}
			s.aggregator.RefreshAll(ctx)
		case <-broadcastTicker.C:
			s.broadcaster.BroadcastSnapshot(s.aggregator.GetAll(ctx))
		}
	}
}
