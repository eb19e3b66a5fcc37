// Package service provides implementations of domain services that implement core business logic
// This package depends only on domain models and repository interfaces (not implementations)
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
	"tokenAggApp/internal/domain/useCases"
)

const (
	// priceUpdateThresholdPct and volumeSpikeThresholdPct are fixed policy
	// constants: an absolute fiat price move of at least 1% emits a
	// price-update event, 24h volume growth of at least 50% a volume-spike.
	priceUpdateThresholdPct = 1.0
	volumeSpikeThresholdPct = 50.0

	snapshotCacheKey = "tokens:snapshot"
	tokenKeyPrefix   = "token:"
)

// AggregatorService owns the canonical merged token set. It orchestrates
// parallel fetch-and-merge across the source adapters, computes
// delta-triggered events, and answers filter/sort/paginate queries.
//
// All merges run on the refresh path under the write lock; readers may
// observe a partially-refreshed set mid-refresh. That is an accepted
// trade-off favoring freshness over read isolation.
type AggregatorService struct {
	mu         sync.RWMutex
	tokens     map[string]*model.Token
	prevPrice  map[string]float64 // last merged fiat price per address
	prevVolume map[string]float64 // last merged 24h volume per address

	lastRefresh   time.Time
	activeSources []string
	solRate       float64

	cache      repository.Cache
	cacheTTL   time.Duration
	rateSource repository.ReferenceRateSource
	adapters   []repository.SourceAdapter
	sink       useCases.EventSink
}

// NewAggregatorService wires the engine with its collaborators. The event
// sink is injected at construction; there is no post-construction setter.
// adapters[0] is the primary source used for lookup fallback fetches.
func NewAggregatorService(
	cache repository.Cache,
	rateSource repository.ReferenceRateSource,
	adapters []repository.SourceAdapter,
	sink useCases.EventSink,
	cacheTTL time.Duration,
) *AggregatorService {
	return &AggregatorService{
		tokens:     make(map[string]*model.Token),
		prevPrice:  make(map[string]float64),
		prevVolume: make(map[string]float64),
		cache:      cache,
		cacheTTL:   cacheTTL,
		rateSource: rateSource,
		adapters:   adapters,
		sink:       sink,
	}
}

// Ensure interface compliance
var _ useCases.AggregatorService = (*AggregatorService)(nil)

// Initialize performs one reference-rate refresh and one full refresh. It
// fails loudly when the first refresh produces no data at all: the service
// is unusable empty, and this is the only path that propagates refresh
// failures.
func (s *AggregatorService) Initialize(ctx context.Context) error {
	s.RefreshReferenceRate(ctx)
	if succeeded := s.refresh(ctx); succeeded == 0 {
		return fmt.Errorf("initial refresh failed: no source adapter produced data")
	}
	return nil
}

// RefreshReferenceRate updates the cached SOL/USD rate. Best-effort: on
// failure the last known rate is retained and the error only logged.
func (s *AggregatorService) RefreshReferenceRate(ctx context.Context) {
	rate, err := s.rateSource.Fetch(ctx)
	if err != nil {
		slog.Warn("reference rate refresh failed, keeping last known rate", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.solRate = rate
	s.mu.Unlock()
	slog.Debug("reference rate updated", slog.Float64("sol_usd", rate))
}

// RefreshAll invokes every source adapter concurrently and merges whatever
// succeeded. Partial failure is tolerated: one surviving adapter still
// produces a valid, if incomplete, refresh, and zero survivors complete
// without error (just without new data).
func (s *AggregatorService) RefreshAll(ctx context.Context) {
	s.refresh(ctx)
}

type fetchResult struct {
	source string
	tokens []*model.Token
	err    error
}

func (s *AggregatorService) refresh(ctx context.Context) (succeeded int) {
	started := time.Now()
	rate := s.currentRate()

	// Fan out one fetch per adapter; capture every outcome independently,
	// never short-circuiting on the first failure.
	results := make([]fetchResult, len(s.adapters))
	var wg sync.WaitGroup
	for i, adapter := range s.adapters {
		wg.Add(1)
		go func(i int, adapter repository.SourceAdapter) {
			defer wg.Done()
			tokens, err := adapter.FetchTokens(ctx, rate)
			results[i] = fetchResult{source: adapter.Name(), tokens: tokens, err: err}
		}(i, adapter)
	}
	wg.Wait()

	var batch eventBatch
	var active []string
	merged := 0

	s.mu.Lock()
	for _, res := range results {
		if res.err != nil {
			slog.Error("source refresh failed",
				slog.String("source", res.source),
				slog.Any("error", res.err),
			)
			continue
		}
		active = append(active, res.source)
		for _, token := range res.tokens {
			s.mergeLocked(token, &batch)
		}
		merged += len(res.tokens)
	}
	s.activeSources = active
	s.lastRefresh = time.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(&batch)
	s.writeSnapshot(ctx, snapshot)

	slog.Info("refresh completed",
		slog.Int("sources_ok", len(active)),
		slog.Int("sources_total", len(s.adapters)),
		slog.Int("records_merged", merged),
		slog.Duration("took", time.Since(started)),
	)
	return len(active)
}

// mergeLocked merges one incoming record into the canonical set, collecting
// any triggered events into batch. Callers hold the write lock. O(1).
func (s *AggregatorService) mergeLocked(incoming *model.Token, batch *eventBatch) {
	existing, ok := s.tokens[incoming.Address]
	if !ok {
		stored := incoming.Copy()
		if stored.LastUpdated.IsZero() {
			stored.LastUpdated = time.Now()
		}
		s.tokens[incoming.Address] = stored
		s.prevPrice[incoming.Address] = stored.PriceUsd
		s.prevVolume[incoming.Address] = stored.Volume24h
		batch.fresh = append(batch.fresh, stored.Copy())
		return
	}

	mergeFields(existing, incoming)
	existing.LastUpdated = time.Now()

	// Change detection compares against the previous merge, not the
	// pre-merge record, so a burst of merges within one refresh cannot
	// double-count the same move.
	prevPrice := s.prevPrice[existing.Address]
	if prevPrice > 0 && existing.PriceUsd > 0 {
		pct := (existing.PriceUsd - prevPrice) / prevPrice * 100
		if math.Abs(pct) >= priceUpdateThresholdPct {
			batch.priceUpdates = append(batch.priceUpdates, model.PriceUpdateEvent{
				Address:       existing.Address,
				OldPrice:      prevPrice,
				NewPrice:      existing.PriceUsd,
				PercentChange: pct,
				Volume24h:     existing.Volume24h,
			})
		}
	}

	prevVolume := s.prevVolume[existing.Address]
	if prevVolume > 0 && existing.Volume24h > 0 {
		growth := (existing.Volume24h - prevVolume) / prevVolume * 100
		if growth >= volumeSpikeThresholdPct {
			batch.volumeSpikes = append(batch.volumeSpikes, model.VolumeSpikeEvent{
				Address:        existing.Address,
				Ticker:         existing.Ticker,
				PercentChange:  growth,
				CurrentVolume:  existing.Volume24h,
				PreviousVolume: prevVolume,
				Window:         model.Period24h,
			})
		}
	}

	s.prevPrice[existing.Address] = existing.PriceUsd
	s.prevVolume[existing.Address] = existing.Volume24h
}

// mergeFields combines incoming into existing under the
// prefer-freshest-nonzero policy: incoming overwrites unless it carries the
// zero/empty value, transaction count takes the maximum, sources the union,
// socials a shallow field-by-field merge.
func mergeFields(existing, incoming *model.Token) {
	preferString(&existing.Name, incoming.Name)
	preferString(&existing.Ticker, incoming.Ticker)
	preferString(&existing.Chain, incoming.Chain)
	preferString(&existing.Protocol, incoming.Protocol)
	preferString(&existing.PairAddress, incoming.PairAddress)

	preferNonzero(&existing.PriceSol, incoming.PriceSol)
	preferNonzero(&existing.PriceUsd, incoming.PriceUsd)
	preferNonzero(&existing.MarketCapSol, incoming.MarketCapSol)
	preferNonzero(&existing.MarketCapUsd, incoming.MarketCapUsd)
	preferNonzero(&existing.VolumeSol, incoming.VolumeSol)
	preferNonzero(&existing.VolumeUsd, incoming.VolumeUsd)
	preferNonzero(&existing.Volume1h, incoming.Volume1h)
	preferNonzero(&existing.Volume24h, incoming.Volume24h)
	preferNonzero(&existing.Volume7d, incoming.Volume7d)
	preferNonzero(&existing.PriceChange1h, incoming.PriceChange1h)
	preferNonzero(&existing.PriceChange24h, incoming.PriceChange24h)
	preferNonzero(&existing.PriceChange7d, incoming.PriceChange7d)
	preferNonzero(&existing.LiquiditySol, incoming.LiquiditySol)
	preferNonzero(&existing.LiquidityUsd, incoming.LiquidityUsd)

	if incoming.TxCount > existing.TxCount {
		existing.TxCount = incoming.TxCount
	}

	// creation stays at first sighting
	if existing.CreatedAt.IsZero() {
		existing.CreatedAt = incoming.CreatedAt
	}

	preferString(&existing.ImageURL, incoming.ImageURL)
	preferString(&existing.Website, incoming.Website)

	if len(incoming.Socials) > 0 {
		if existing.Socials == nil {
			existing.Socials = make(map[string]string, len(incoming.Socials))
		}
		for k, v := range incoming.Socials {
			existing.Socials[k] = v
		}
	}

	for _, src := range incoming.Sources {
		existing.AddSource(src)
	}
}

func preferNonzero(dst *float64, incoming float64) {
	if incoming != 0 {
		*dst = incoming
	}
}

func preferString(dst *string, incoming string) {
	if incoming != "" {
		*dst = incoming
	}
}

// GetTokens answers a filter/sort/paginate query. It reads a full snapshot
// from cache when one is fresh there, otherwise from the canonical set, and
// reports which via the result's cache-hit flag.
func (s *AggregatorService) GetTokens(ctx context.Context, filter model.TokenFilter, sortSpec model.SortSpec, page model.PageRequest) (*model.PageResult, error) {
	tokens, cacheHit := s.readSnapshot(ctx)

	period := model.NormalizePeriod(filter.Period)
	filtered := applyFilter(tokens, filter)
	applySort(filtered, sortSpec, period)

	result := paginate(filtered, page)
	result.CacheHit = cacheHit
	return result, nil
}

// GetByAddress resolves one token: cache, then the canonical set, then a
// single best-effort fetch against the primary source. A nil token with a
// nil error means not found; upstream failure details never surface here.
func (s *AggregatorService) GetByAddress(ctx context.Context, address string) (*model.Token, error) {
	key := tokenKeyPrefix + address
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var token model.Token
		if err := json.Unmarshal([]byte(raw), &token); err == nil {
			return &token, nil
		}
	}

	s.mu.RLock()
	existing, ok := s.tokens[address]
	var copied *model.Token
	if ok {
		copied = existing.Copy()
	}
	s.mu.RUnlock()

	if copied != nil {
		s.writeTokenEntry(ctx, copied)
		return copied, nil
	}

	// Total miss: best-effort single fetch against the primary source.
	if len(s.adapters) == 0 {
		return nil, nil
	}
	fetched, err := s.adapters[0].FetchByAddress(ctx, address, s.currentRate())
	if err != nil {
		slog.Warn("lookup fallback fetch failed",
			slog.String("address", address),
			slog.Any("error", err),
		)
		return nil, nil
	}
	if fetched == nil {
		return nil, nil
	}

	var batch eventBatch
	s.mu.Lock()
	s.mergeLocked(fetched, &batch)
	merged := s.tokens[fetched.Address].Copy()
	s.mu.Unlock()

	s.emit(&batch)
	s.writeTokenEntry(ctx, merged)
	return merged, nil
}

// SearchTokens matches the in-memory set first and widens to a best-effort
// concurrent search across the pair-data and discovery sources when that
// yields fewer than limit hits. External hits are merged into the canonical
// set before the final in-memory pass.
func (s *AggregatorService) SearchTokens(ctx context.Context, query string, limit int) ([]*model.Token, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}

	local := s.searchCanonical(query, limit)
	if len(local) >= limit {
		return local[:limit], nil
	}

	// Fan out to the sources that support search; the pool source's Search
	// is a no-op and contributes nothing.
	rate := s.currentRate()
	var wg sync.WaitGroup
	hits := make([][]*model.Token, len(s.adapters))
	for i, adapter := range s.adapters {
		wg.Add(1)
		go func(i int, adapter repository.SourceAdapter) {
			defer wg.Done()
			found, err := adapter.Search(ctx, query, rate)
			if err != nil {
				slog.Warn("source search failed",
					slog.String("source", adapter.Name()),
					slog.Any("error", err),
				)
				return
			}
			hits[i] = found
		}(i, adapter)
	}
	wg.Wait()

	var batch eventBatch
	s.mu.Lock()
	for _, found := range hits {
		for _, token := range found {
			s.mergeLocked(token, &batch)
		}
	}
	s.mu.Unlock()
	s.emit(&batch)

	return s.searchCanonical(query, limit), nil
}

// searchCanonical returns up to limit copies of canonical tokens matching
// the query substring.
func (s *AggregatorService) searchCanonical(query string, limit int) []*model.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Token, 0, limit)
	for _, t := range s.tokens {
		if !matchesSearch(t, query) {
			continue
		}
		out = append(out, t.Copy())
		if len(out) >= limit {
			break
		}
	}
	return out
}

// GetAll returns copies of every canonical token, for periodic broadcasts.
func (s *AggregatorService) GetAll(ctx context.Context) []*model.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// GetStats reports the observability snapshot for the stats endpoint.
func (s *AggregatorService) GetStats(ctx context.Context) model.AggregatorStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.AggregatorStats{
		TotalTokens:   len(s.tokens),
		ActiveSources: len(s.activeSources),
		SourceNames:   append([]string(nil), s.activeSources...),
		LastRefresh:   s.lastRefresh,
		SolPriceUsd:   s.solRate,
		Cache:         s.cache.Stats(),
	}
}

func (s *AggregatorService) currentRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.solRate
}

// snapshotLocked copies the canonical set. Callers hold at least the read lock.
func (s *AggregatorService) snapshotLocked() []*model.Token {
	out := make([]*model.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t.Copy())
	}
	return out
}

// readSnapshot loads the full token set from cache when fresh, falling back
// to the canonical in-memory set.
func (s *AggregatorService) readSnapshot(ctx context.Context) ([]*model.Token, bool) {
	if raw, ok, _ := s.cache.Get(ctx, snapshotCacheKey); ok {
		var tokens []*model.Token
		if err := json.Unmarshal([]byte(raw), &tokens); err == nil {
			return tokens, true
		} else {
			slog.Warn("discarding undecodable snapshot cache entry", slog.Any("error", err))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), false
}

// writeSnapshot stores the full merged set in cache. Failures are logged
// and swallowed: the in-memory set remains authoritative.
func (s *AggregatorService) writeSnapshot(ctx context.Context, tokens []*model.Token) {
	data, err := json.Marshal(tokens)
	if err != nil {
		slog.Error("failed to marshal snapshot for cache", slog.Any("error", err))
		return
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, string(data), s.cacheTTL); err != nil {
		slog.Warn("snapshot cache write failed", slog.Any("error", err))
	}
}

func (s *AggregatorService) writeTokenEntry(ctx context.Context, token *model.Token) {
	data, err := json.Marshal(token)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, tokenKeyPrefix+token.Address, string(data), s.cacheTTL)
}

// eventBatch accumulates events triggered under the write lock so delivery
// happens after the lock is released, still synchronously within the
// triggering call.
type eventBatch struct {
	priceUpdates []model.PriceUpdateEvent
	volumeSpikes []model.VolumeSpikeEvent
	fresh        []*model.Token
}

func (s *AggregatorService) emit(batch *eventBatch) {
	if s.sink == nil {
		return
	}
	for _, token := range batch.fresh {
		s.sink.OnNewToken(token)
	}
	for _, ev := range batch.priceUpdates {
		s.sink.OnPriceUpdate(ev)
	}
	for _, ev := range batch.volumeSpikes {
		s.sink.OnVolumeSpike(ev)
	}
}
