package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
)

// SourceGeckoTerminal identifies the aggregator/discovery source.
const SourceGeckoTerminal = "geckoterminal"

// GeckoTerminalAdapter is the discovery source: trending pools, new listings
// and pool search. It has no per-address lookup.
type GeckoTerminalAdapter struct {
	src httpSource
}

var _ repository.SourceAdapter = (*GeckoTerminalAdapter)(nil)

func NewGeckoTerminalAdapter(baseURL string, limiter *RateLimiter, attempts int) *GeckoTerminalAdapter {
	return &GeckoTerminalAdapter{
		src: newHTTPSource(SourceGeckoTerminal, baseURL, limiter, attempts),
	}
}

func (a *GeckoTerminalAdapter) Name() string { return SourceGeckoTerminal }

// geckoPool mirrors one JSON:API pool resource.
type geckoPool struct {
	ID         string `json:"id"`
	Attributes struct {
		Name                         string `json:"name"`
		Address                      string `json:"address"`
		BaseTokenPriceUsd            string `json:"base_token_price_usd"`
		BaseTokenPriceNativeCurrency string `json:"base_token_price_native_currency"`
		PoolCreatedAt                string `json:"pool_created_at"`
		ReserveInUsd                 string `json:"reserve_in_usd"`
		FdvUsd                       string `json:"fdv_usd"`
		MarketCapUsd                 string `json:"market_cap_usd"`
		VolumeUsd                    map[string]string `json:"volume_usd"`
		PriceChangePercentage        map[string]string `json:"price_change_percentage"`
		Transactions                 map[string]struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"transactions"`
	} `json:"attributes"`
	Relationships struct {
		BaseToken struct {
			Data struct {
				ID string `json:"id"` // "solana_<mint>"
			} `json:"data"`
		} `json:"base_token"`
		Dex struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"dex"`
	} `json:"relationships"`
}

type geckoResponse struct {
	Data []geckoPool `json:"data"`
}

// FetchTokens combines the trending and new-pool listings into one batch.
// Either call failing fails the whole fetch: the aggregator treats partial
// source output the same as a down source.
func (a *GeckoTerminalAdapter) FetchTokens(ctx context.Context, solRate float64) ([]*model.Token, error) {
	var trending, fresh geckoResponse
	if err := a.src.getJSON(ctx, "/networks/solana/trending_pools", &trending); err != nil {
		return nil, err
	}
	if err := a.src.getJSON(ctx, "/networks/solana/new_pools", &fresh); err != nil {
		return nil, err
	}
	return a.collect(append(trending.Data, fresh.Data...), solRate), nil
}

// FetchByAddress is unsupported on this source.
func (a *GeckoTerminalAdapter) FetchByAddress(ctx context.Context, address string, solRate float64) (*model.Token, error) {
	return nil, nil
}

// Search runs the provider's pool search scoped to Solana.
func (a *GeckoTerminalAdapter) Search(ctx context.Context, query string, solRate float64) ([]*model.Token, error) {
	var resp geckoResponse
	path := "/search/pools?network=solana&query=" + url.QueryEscape(query)
	if err := a.src.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return a.collect(resp.Data, solRate), nil
}

func (a *GeckoTerminalAdapter) collect(pools []geckoPool, solRate float64) []*model.Token {
	tokens := make([]*model.Token, 0, len(pools))
	for i := range pools {
		token, err := transformGeckoPool(&pools[i], solRate)
		if err != nil {
			slog.Warn("skipping malformed geckoterminal pool",
				slog.String("pool", pools[i].Attributes.Address),
				slog.Any("error", err),
			)
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// transformGeckoPool maps one JSON:API pool onto the unified token shape.
// All numerics arrive string-encoded.
func transformGeckoPool(p *geckoPool, solRate float64) (*model.Token, error) {
	id := p.Relationships.BaseToken.Data.ID
	if !strings.HasPrefix(id, "solana_") {
		return nil, fmt.Errorf("pool %q has no solana base token", p.Attributes.Address)
	}
	mint := strings.TrimPrefix(id, "solana_")
	if mint == "" {
		return nil, fmt.Errorf("pool %q has an empty base token mint", p.Attributes.Address)
	}

	attr := &p.Attributes
	t := &model.Token{
		Address:     mint,
		Name:        baseNameFromPool(attr.Name),
		Ticker:      baseNameFromPool(attr.Name),
		Chain:       "solana",
		Protocol:    strings.TrimSuffix(p.Relationships.Dex.Data.ID, "-solana"),
		PairAddress: attr.Address,

		PriceSol: parseDecimal(attr.BaseTokenPriceNativeCurrency),
		PriceUsd: parseDecimal(attr.BaseTokenPriceUsd),

		Volume1h:  parseDecimal(attr.VolumeUsd["h1"]),
		Volume24h: parseDecimal(attr.VolumeUsd["h24"]),
		VolumeUsd: parseDecimal(attr.VolumeUsd["h24"]),

		PriceChange1h:  parseDecimal(attr.PriceChangePercentage["h1"]),
		PriceChange24h: parseDecimal(attr.PriceChangePercentage["h24"]),
		PriceChange7d:  parseDecimal(attr.PriceChangePercentage["d7"]),

		LiquidityUsd: parseDecimal(attr.ReserveInUsd),

		LastUpdated: time.Now(),
		Sources:     []string{SourceGeckoTerminal},
	}

	if txns, ok := attr.Transactions["h24"]; ok {
		t.TxCount = txns.Buys + txns.Sells
	}

	// fdv stands in for market cap when the provider omits the real one
	t.MarketCapUsd = parseDecimal(attr.MarketCapUsd)
	if t.MarketCapUsd == 0 {
		t.MarketCapUsd = parseDecimal(attr.FdvUsd)
	}

	if attr.PoolCreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, attr.PoolCreatedAt); err == nil {
			t.CreatedAt = created
		}
	}

	deriveUnits(t, solRate)
	return t, nil
}

// baseNameFromPool extracts the base token symbol from a "WIF / SOL" style
// pool name.
func baseNameFromPool(poolName string) string {
	if idx := strings.Index(poolName, " / "); idx > 0 {
		return poolName[:idx]
	}
	return poolName
}
