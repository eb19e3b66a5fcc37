package upstream

import (
	"context"
	"fmt"
)

// SolPriceClient fetches the SOL/USD reference rate from the CoinGecko
// simple-price endpoint. The aggregator uses it to derive fiat fields for
// sources that only report native-unit values.
type SolPriceClient struct {
	src httpSource
}

func NewSolPriceClient(baseURL string, attempts int) *SolPriceClient {
	limiter := NewRateLimiter(10, minuteWindow)
	return &SolPriceClient{
		src: newHTTPSource("coingecko", baseURL, limiter, attempts),
	}
}

// Fetch returns the current SOL price in USD.
func (c *SolPriceClient) Fetch(ctx context.Context) (float64, error) {
	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := c.src.getJSON(ctx, "/simple/price?ids=solana&vs_currencies=usd", &payload); err != nil {
		return 0, err
	}

	entry, ok := payload["solana"]
	if !ok || entry.USD <= 0 {
		return 0, fmt.Errorf("coingecko returned no usable solana price")
	}
	return entry.USD, nil
}
