package model

import "time"

// Token is the unified, merged representation of one tradable asset across
// all upstream sources, keyed by its mint address.
type Token struct {
	// Identity
	Address     string `json:"address"`
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	Chain       string `json:"chain"`
	Protocol    string `json:"protocol"`
	PairAddress string `json:"pair_address"`

	// Pricing
	PriceSol float64 `json:"price_sol"`
	PriceUsd float64 `json:"price_usd"`

	// Market size
	MarketCapSol float64 `json:"market_cap_sol"`
	MarketCapUsd float64 `json:"market_cap_usd"`

	// Activity
	VolumeSol float64 `json:"volume_sol"`
	VolumeUsd float64 `json:"volume_usd"`
	Volume1h  float64 `json:"volume_1h"`
	Volume24h float64 `json:"volume_24h"`
	Volume7d  float64 `json:"volume_7d"`
	TxCount   int     `json:"tx_count"`

	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange24h float64 `json:"price_change_24h"`
	PriceChange7d  float64 `json:"price_change_7d"`

	// Liquidity
	LiquiditySol float64 `json:"liquidity_sol"`
	LiquidityUsd float64 `json:"liquidity_usd"`

	// Metadata
	CreatedAt   time.Time         `json:"created_at"`
	LastUpdated time.Time         `json:"last_updated"`
	ImageURL    string            `json:"image_url,omitempty"`
	Website     string            `json:"website,omitempty"`
	Socials     map[string]string `json:"socials,omitempty"`
	Sources     []string          `json:"sources"`
}

// HasSource reports whether the named source already contributed to this token.
func (t *Token) HasSource(name string) bool {
	for _, s := range t.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// AddSource records a contributing source, preserving unique membership.
func (t *Token) AddSource(name string) {
	if name == "" || t.HasSource(name) {
		return
	}
	t.Sources = append(t.Sources, name)
}

// Copy returns a shallow copy of the token with its own Socials map and
// Sources slice, safe to hand out to readers.
func (t *Token) Copy() *Token {
	c := *t
	if t.Socials != nil {
		c.Socials = make(map[string]string, len(t.Socials))
		for k, v := range t.Socials {
			c.Socials[k] = v
		}
	}
	c.Sources = append([]string(nil), t.Sources...)
	return &c
}

// VolumeForPeriod returns the volume for the requested time period, falling
// back to the generic fiat volume when the period-specific field is zero.
func (t *Token) VolumeForPeriod(period string) float64 {
	var v float64
	switch period {
	case Period1h:
		v = t.Volume1h
	case Period7d:
		v = t.Volume7d
	default:
		v = t.Volume24h
	}
	if v == 0 {
		return t.VolumeUsd
	}
	return v
}

// PriceChangeForPeriod returns the percent price change for the requested
// time period.
func (t *Token) PriceChangeForPeriod(period string) float64 {
	switch period {
	case Period1h:
		return t.PriceChange1h
	case Period7d:
		return t.PriceChange7d
	default:
		return t.PriceChange24h
	}
}
