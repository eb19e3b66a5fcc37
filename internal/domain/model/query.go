package model

import "time"

// Time-period selector values accepted by filter and sort operations.
// Anything else is normalized to Period24h.
const (
	Period1h  = "1h"
	Period24h = "24h"
	Period7d  = "7d"
)

// NormalizePeriod maps unrecognized period values to the 24h default.
func NormalizePeriod(p string) string {
	switch p {
	case Period1h, Period24h, Period7d:
		return p
	default:
		return Period24h
	}
}

// Sort field names accepted by SortSpec. Anything else falls back to volume.
const (
	SortVolume      = "volume"
	SortPriceChange = "price_change"
	SortMarketCap   = "market_cap"
	SortLiquidity   = "liquidity"
	SortTxCount     = "tx_count"
	SortCreated     = "created"
)

// TokenFilter describes optional, AND-combined constraints over the token set.
// Nil range pointers mean "unconstrained". Period re-targets which volume and
// price-change fields range/sort operations read.
type TokenFilter struct {
	MinVolume    *float64
	MaxVolume    *float64
	MinMarketCap *float64
	MaxMarketCap *float64
	MinLiquidity *float64
	Protocol     string
	Chain        string
	Search       string
	Period       string
}

// SortSpec names the sort field and direction for a query.
type SortSpec struct {
	Field string
	Desc  bool
}

// PageRequest carries the page size and the opaque cursor of a query.
type PageRequest struct {
	Limit  int
	Cursor string
}

// PageResult is one page of a filtered, sorted token sequence.
type PageResult struct {
	Tokens     []*Token `json:"tokens"`
	Total      int      `json:"total"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor,omitempty"`
	PrevCursor string   `json:"prev_cursor,omitempty"`
	CacheHit   bool     `json:"cache_hit"`
}

// AggregatorStats is the observability snapshot returned by GetStats.
type AggregatorStats struct {
	TotalTokens   int        `json:"total_tokens"`
	ActiveSources int        `json:"active_sources"`
	SourceNames   []string   `json:"source_names"`
	LastRefresh   time.Time  `json:"last_refresh"`
	SolPriceUsd   float64    `json:"sol_price_usd"`
	Cache         CacheStats `json:"cache"`
}

// CacheStats reports hit/miss counters of a cache backend.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Size    int     `json:"size"`
}
