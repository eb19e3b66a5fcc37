package upstream

import (
	"strconv"

	"tokenAggApp/internal/domain/model"
)

// parseDecimal converts a string-encoded decimal to float64, returning 0 for
// empty or malformed input. Several providers encode all numerics as strings.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// deriveUnits fills whichever of the token's native/fiat field pairs is zero
// from its counterpart using the reference rate. A zero rate leaves the
// token untouched.
func deriveUnits(t *model.Token, rate float64) {
	if rate <= 0 {
		return
	}
	fillPair(&t.PriceSol, &t.PriceUsd, rate)
	fillPair(&t.MarketCapSol, &t.MarketCapUsd, rate)
	fillPair(&t.VolumeSol, &t.VolumeUsd, rate)
	fillPair(&t.LiquiditySol, &t.LiquidityUsd, rate)
}

func fillPair(native, fiat *float64, rate float64) {
	if *native != 0 && *fiat == 0 {
		*fiat = *native * rate
	} else if *fiat != 0 && *native == 0 {
		*native = *fiat / rate
	}
}
