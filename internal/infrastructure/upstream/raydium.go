package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
)

// SourceRaydium identifies the secondary pool source.
const SourceRaydium = "raydium"

// wrappedSolMint is the quote mint of the pools this adapter consumes.
const wrappedSolMint = "So11111111111111111111111111111111111111112"

// RaydiumAdapter is the secondary pool source. It only supports listing;
// lookup and search are unsupported. The provider reports volumes in the
// quote (SOL) unit, so fiat fields are derived from the reference rate.
type RaydiumAdapter struct {
	src httpSource
}

var _ repository.SourceAdapter = (*RaydiumAdapter)(nil)

func NewRaydiumAdapter(baseURL string, limiter *RateLimiter, attempts int) *RaydiumAdapter {
	return &RaydiumAdapter{
		src: newHTTPSource(SourceRaydium, baseURL, limiter, attempts),
	}
}

func (a *RaydiumAdapter) Name() string { return SourceRaydium }

// raydiumPool mirrors one entry of the v3 pool-info listing.
type raydiumPool struct {
	ID    string `json:"id"`
	MintA struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
		LogoURI string `json:"logoURI"`
	} `json:"mintA"`
	MintB struct {
		Address string `json:"address"`
	} `json:"mintB"`
	Price float64 `json:"price"` // mintA price in mintB units
	Day   struct {
		VolumeQuote float64 `json:"volumeQuote"`
	} `json:"day"`
	Week struct {
		VolumeQuote float64 `json:"volumeQuote"`
	} `json:"week"`
	LpAmountQuote float64 `json:"lpAmountQuote"` // pooled quote-side depth
	OpenTime      int64   `json:"openTime,string"`
}

type raydiumResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Data []raydiumPool `json:"data"`
	} `json:"data"`
}

// FetchTokens lists the top pools by 24h volume.
func (a *RaydiumAdapter) FetchTokens(ctx context.Context, solRate float64) ([]*model.Token, error) {
	var resp raydiumResponse
	path := "/pools/info/list?poolType=all&poolSortField=volume24h&sortType=desc&pageSize=100&page=1"
	if err := a.src.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("raydium pool listing returned success=false")
	}

	tokens := make([]*model.Token, 0, len(resp.Data.Data))
	for i := range resp.Data.Data {
		token, err := transformRaydiumPool(&resp.Data.Data[i], solRate)
		if err != nil {
			slog.Warn("skipping raydium pool",
				slog.String("pool", resp.Data.Data[i].ID),
				slog.Any("error", err),
			)
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// FetchByAddress is unsupported on this source.
func (a *RaydiumAdapter) FetchByAddress(ctx context.Context, address string, solRate float64) (*model.Token, error) {
	return nil, nil
}

// Search is unsupported on this source.
func (a *RaydiumAdapter) Search(ctx context.Context, query string, solRate float64) ([]*model.Token, error) {
	return nil, nil
}

// transformRaydiumPool maps one SOL-quoted pool onto the unified token
// shape. Pools quoted in anything but wrapped SOL are rejected: their quote
// volumes are not in the native unit and cannot be derived with the SOL rate.
func transformRaydiumPool(p *raydiumPool, solRate float64) (*model.Token, error) {
	if p.MintA.Address == "" {
		return nil, fmt.Errorf("pool %q has no base mint", p.ID)
	}
	if p.MintB.Address != wrappedSolMint {
		return nil, fmt.Errorf("pool %q is not SOL-quoted", p.ID)
	}

	t := &model.Token{
		Address:     p.MintA.Address,
		Name:        p.MintA.Name,
		Ticker:      p.MintA.Symbol,
		Chain:       "solana",
		Protocol:    SourceRaydium,
		PairAddress: p.ID,

		PriceSol: p.Price,

		// Quote-side figures are SOL; the hour window is absent upstream and
		// stays zero for the merge to fill from another source.
		VolumeSol:    p.Day.VolumeQuote,
		LiquiditySol: p.LpAmountQuote,

		ImageURL:    p.MintA.LogoURI,
		LastUpdated: time.Now(),
		Sources:     []string{SourceRaydium},
	}

	if p.OpenTime > 0 {
		t.CreatedAt = time.Unix(p.OpenTime, 0)
	}

	if solRate > 0 {
		t.Volume24h = p.Day.VolumeQuote * solRate
		t.Volume7d = p.Week.VolumeQuote * solRate
	}
	deriveUnits(t, solRate)
	return t, nil
}
