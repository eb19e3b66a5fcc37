package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
)

// SourceDexScreener identifies the primary pair-data source.
const SourceDexScreener = "dexscreener"

// DexScreenerAdapter is the primary pair-data source. It supports listing,
// per-address lookup and free-text search.
type DexScreenerAdapter struct {
	src httpSource
}

var _ repository.SourceAdapter = (*DexScreenerAdapter)(nil)

func NewDexScreenerAdapter(baseURL string, limiter *RateLimiter, attempts int) *DexScreenerAdapter {
	return &DexScreenerAdapter{
		src: newHTTPSource(SourceDexScreener, baseURL, limiter, attempts),
	}
}

func (a *DexScreenerAdapter) Name() string { return SourceDexScreener }

// dexScreenerPair mirrors one entry of the /latest/dex responses.
type dexScreenerPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceNative string `json:"priceNative"`
	PriceUsd    string `json:"priceUsd"`
	Txns        map[string]struct {
		Buys  int `json:"buys"`
		Sells int `json:"sells"`
	} `json:"txns"`
	Volume      map[string]float64 `json:"volume"`
	PriceChange map[string]float64 `json:"priceChange"`
	Liquidity   struct {
		Usd   float64 `json:"usd"`
		Base  float64 `json:"base"`
		Quote float64 `json:"quote"`
	} `json:"liquidity"`
	Fdv           float64 `json:"fdv"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"` // unix milliseconds
	Info          *struct {
		ImageURL string `json:"imageUrl"`
		Websites []struct {
			URL string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

// FetchTokens lists currently active Solana pairs.
func (a *DexScreenerAdapter) FetchTokens(ctx context.Context, solRate float64) ([]*model.Token, error) {
	var resp dexScreenerResponse
	if err := a.src.getJSON(ctx, "/latest/dex/search?q=solana", &resp); err != nil {
		return nil, err
	}
	return a.collect(resp.Pairs, solRate), nil
}

// FetchByAddress looks up one token's most liquid pair.
func (a *DexScreenerAdapter) FetchByAddress(ctx context.Context, address string, solRate float64) (*model.Token, error) {
	var resp dexScreenerResponse
	path := "/latest/dex/tokens/" + url.PathEscape(address)
	if err := a.src.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if len(resp.Pairs) == 0 {
		return nil, nil
	}

	// The first Solana pair is the provider's most liquid one.
	for i := range resp.Pairs {
		if resp.Pairs[i].ChainID != "solana" {
			continue
		}
		token, err := transformDexScreenerPair(&resp.Pairs[i], solRate)
		if err != nil {
			return nil, err
		}
		return token, nil
	}
	return nil, nil
}

// Search runs the provider's free-text pair search.
func (a *DexScreenerAdapter) Search(ctx context.Context, query string, solRate float64) ([]*model.Token, error) {
	var resp dexScreenerResponse
	path := "/latest/dex/search?q=" + url.QueryEscape(query)
	if err := a.src.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return a.collect(resp.Pairs, solRate), nil
}

// collect transforms pairs, skipping non-Solana entries and records whose
// transform fails. Transform failures are a bad-payload condition: logged,
// never fatal to the batch.
func (a *DexScreenerAdapter) collect(pairs []dexScreenerPair, solRate float64) []*model.Token {
	tokens := make([]*model.Token, 0, len(pairs))
	for i := range pairs {
		if pairs[i].ChainID != "solana" {
			continue
		}
		token, err := transformDexScreenerPair(&pairs[i], solRate)
		if err != nil {
			slog.Warn("skipping malformed dexscreener pair",
				slog.String("pair", pairs[i].PairAddress),
				slog.Any("error", err),
			)
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// transformDexScreenerPair maps one raw pair onto the unified token shape.
// Pure: no I/O, no shared state.
func transformDexScreenerPair(p *dexScreenerPair, solRate float64) (*model.Token, error) {
	if p.BaseToken.Address == "" {
		return nil, fmt.Errorf("pair %q has no base token address", p.PairAddress)
	}

	t := &model.Token{
		Address:     p.BaseToken.Address,
		Name:        p.BaseToken.Name,
		Ticker:      p.BaseToken.Symbol,
		Chain:       p.ChainID,
		Protocol:    p.DexID,
		PairAddress: p.PairAddress,

		PriceSol: parseDecimal(p.PriceNative),
		PriceUsd: parseDecimal(p.PriceUsd),

		// The provider has no 7d window; that field stays zero and the merge
		// keeps whatever another source contributed.
		Volume1h:  p.Volume["h1"],
		Volume24h: p.Volume["h24"],
		VolumeUsd: p.Volume["h24"],

		PriceChange1h:  p.PriceChange["h1"],
		PriceChange24h: p.PriceChange["h24"],

		LiquidityUsd: p.Liquidity.Usd,

		LastUpdated: time.Now(),
		Sources:     []string{SourceDexScreener},
	}

	if txns, ok := p.Txns["h24"]; ok {
		t.TxCount = txns.Buys + txns.Sells
	}

	// fdv stands in for market cap when the provider omits the real one
	t.MarketCapUsd = p.MarketCap
	if t.MarketCapUsd == 0 {
		t.MarketCapUsd = p.Fdv
	}

	if p.PairCreatedAt > 0 {
		t.CreatedAt = time.UnixMilli(p.PairCreatedAt)
	}

	if p.Info != nil {
		t.ImageURL = p.Info.ImageURL
		if len(p.Info.Websites) > 0 {
			t.Website = p.Info.Websites[0].URL
		}
		if len(p.Info.Socials) > 0 {
			t.Socials = make(map[string]string, len(p.Info.Socials))
			for _, s := range p.Info.Socials {
				if s.Type != "" && s.URL != "" {
					t.Socials[s.Type] = s.URL
				}
			}
		}
	}

	deriveUnits(t, solRate)
	return t, nil
}
