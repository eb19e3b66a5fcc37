package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tokenAggApp/internal/domain/model"
)

// TokenGenerator provides methods to generate test token data
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateTokens creates a specified number of test token records with
// unique addresses and deterministic field values.
func (g *TokenGenerator) GenerateTokens(count int) []*model.Token {
	tickers := []string{"WIF", "BONK", "JUP", "PYTH", "RAY", "ORCA", "JTO", "WEN", "POPCAT", "MEW"}
	protocols := []string{"raydium", "orca", "meteora"}

	tokens := make([]*model.Token, count)
	for i := 0; i < count; i++ {
		ticker := tickers[i%len(tickers)]
		tokens[i] = &model.Token{
			Address:        uuid.New().String(),
			Name:           fmt.Sprintf("%s Token %d", ticker, i),
			Ticker:         ticker,
			Chain:          "solana",
			Protocol:       protocols[i%len(protocols)],
			PairAddress:    uuid.New().String(),
			PriceUsd:       float64(1+i%100) / 100,
			PriceSol:       float64(1+i%100) / 15000,
			MarketCapUsd:   float64(100000 + i*10000),
			VolumeUsd:      float64(5000 + i*500),
			Volume1h:       float64(200 + i*20),
			Volume24h:      float64(5000 + i*500),
			Volume7d:       float64(30000 + i*3000),
			TxCount:        50 + i%500,
			PriceChange1h:  float64(i%21-10) / 10,
			PriceChange24h: float64(i%41 - 20),
			PriceChange7d:  float64(i%81 - 40),
			LiquidityUsd:   float64(20000 + i*1000),
			CreatedAt:      time.Now().Add(-time.Duration(i) * time.Hour),
			LastUpdated:    time.Now(),
			Sources:        []string{"dexscreener"},
		}
	}

	return tokens
}
