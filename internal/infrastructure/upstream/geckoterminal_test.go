package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func makeGeckoPool(t *testing.T) *geckoPool {
	t.Helper()
	p := &geckoPool{ID: "solana_poolabc"}
	p.Attributes.Name = "BONK / SOL"
	p.Attributes.Address = "poolabc"
	p.Attributes.BaseTokenPriceUsd = "0.000025"
	p.Attributes.BaseTokenPriceNativeCurrency = "0.000000125"
	p.Attributes.PoolCreatedAt = "2024-03-01T12:00:00Z"
	p.Attributes.ReserveInUsd = "320000"
	p.Attributes.FdvUsd = "1500000"
	p.Attributes.MarketCapUsd = ""
	p.Attributes.VolumeUsd = map[string]string{"h1": "8000", "h24": "250000"}
	p.Attributes.PriceChangePercentage = map[string]string{"h1": "1.5", "h24": "-7.25", "d7": "12.0"}
	p.Attributes.Transactions = map[string]struct {
		Buys  int `json:"buys"`
		Sells int `json:"sells"`
	}{"h24": {Buys: 120, Sells: 80}}
	p.Relationships.BaseToken.Data.ID = "solana_bonkmint"
	p.Relationships.Dex.Data.ID = "orca-solana"
	return p
}

func TestGeckoTerminal_Transform(t *testing.T) {
	token, err := transformGeckoPool(makeGeckoPool(t), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token.Address != "bonkmint" {
		t.Errorf("expected mint extracted from base token id, got %q", token.Address)
	}
	if token.Ticker != "BONK" || token.Name != "BONK" {
		t.Errorf("expected base symbol from pool name, got %q/%q", token.Name, token.Ticker)
	}
	if token.Protocol != "orca" {
		t.Errorf("expected dex id without network suffix, got %q", token.Protocol)
	}
	if token.PriceUsd != 0.000025 || token.PriceSol != 0.000000125 {
		t.Errorf("unexpected prices: %+v", token)
	}
	if token.Volume1h != 8000 || token.Volume24h != 250000 {
		t.Errorf("unexpected volumes: %+v", token)
	}
	if token.PriceChange7d != 12.0 {
		t.Errorf("expected d7 price change mapped to 7d, got %v", token.PriceChange7d)
	}
	if token.TxCount != 200 {
		t.Errorf("expected h24 buys+sells = 200, got %d", token.TxCount)
	}
	if token.LiquidityUsd != 320000 {
		t.Errorf("expected reserve as liquidity, got %v", token.LiquidityUsd)
	}
	// market cap is absent upstream, fdv stands in
	if token.MarketCapUsd != 1500000 {
		t.Errorf("expected fdv as market cap proxy, got %v", token.MarketCapUsd)
	}
	if token.CreatedAt.IsZero() {
		t.Error("expected pool creation timestamp to be parsed")
	}
	if len(token.Sources) != 1 || token.Sources[0] != SourceGeckoTerminal {
		t.Errorf("unexpected sources: %v", token.Sources)
	}
}

func TestGeckoTerminal_TransformRejectsForeignPool(t *testing.T) {
	p := makeGeckoPool(t)
	p.Relationships.BaseToken.Data.ID = "eth_0xabc"

	if _, err := transformGeckoPool(p, 0); err == nil {
		t.Error("expected error for non-solana base token")
	}
}

func TestGeckoTerminal_FetchTokens_CombinesTrendingAndNew(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{
			"data": [{
				"id": "solana_pool1",
				"attributes": {"name": "WEN / SOL", "address": "pool1", "base_token_price_usd": "0.5"},
				"relationships": {
					"base_token": {"data": {"id": "solana_wenmint"}},
					"dex": {"data": {"id": "raydium-solana"}}
				}
			}]
		}`))
	}))
	defer server.Close()

	adapter := NewGeckoTerminalAdapter(server.URL, NewRateLimiter(100, time.Second), 1)
	tokens, err := adapter.FetchTokens(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected trending and new-pool calls, got %v", paths)
	}
	if paths[0] != "/networks/solana/trending_pools" || paths[1] != "/networks/solana/new_pools" {
		t.Errorf("unexpected paths: %v", paths)
	}
	if len(tokens) != 2 {
		t.Errorf("expected both listings collected, got %d tokens", len(tokens))
	}
}

func TestGeckoTerminal_FetchByAddressUnsupported(t *testing.T) {
	adapter := NewGeckoTerminalAdapter("http://unused", NewRateLimiter(1, time.Second), 1)
	token, err := adapter.FetchByAddress(context.Background(), "any", 0)
	if token != nil || err != nil {
		t.Errorf("expected nil, nil for unsupported lookup, got %v, %v", token, err)
	}
}
