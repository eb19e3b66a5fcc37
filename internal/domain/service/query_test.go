package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/pkg/utils"
)

func floatPtr(v float64) *float64 { return &v }

func queryFixture() []*model.Token {
	return []*model.Token{
		{Address: "wif", Name: "dogwifhat", Ticker: "WIF", Chain: "solana", Protocol: "raydium",
			VolumeUsd: 50000, Volume1h: 2000, Volume24h: 50000, MarketCapUsd: 2_000_000,
			LiquidityUsd: 80000, TxCount: 900, PriceChange24h: 12.5,
			CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Address: "bonk", Name: "Bonk", Ticker: "BONK", Chain: "solana", Protocol: "orca",
			VolumeUsd: 120000, Volume1h: 0, Volume24h: 120000, MarketCapUsd: 500_000,
			LiquidityUsd: 30000, TxCount: 2500, PriceChange24h: -4.0,
			CreatedAt: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{Address: "jup", Name: "Jupiter", Ticker: "JUP", Chain: "solana", Protocol: "raydium",
			VolumeUsd: 10000, Volume1h: 800, Volume24h: 10000, MarketCapUsd: 9_000_000,
			LiquidityUsd: 400000, TxCount: 150, PriceChange24h: 1.2,
			CreatedAt: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)},
	}
}

func TestApplyFilter_ZeroFilterMatchesAll(t *testing.T) {
	tokens := queryFixture()
	assert.Len(t, applyFilter(tokens, model.TokenFilter{}), len(tokens))
}

func TestApplyFilter_ContradictoryRangeIsEmpty(t *testing.T) {
	got := applyFilter(queryFixture(), model.TokenFilter{
		MinVolume: floatPtr(100000),
		MaxVolume: floatPtr(1000),
	})
	assert.Empty(t, got)
}

func TestApplyFilter_RangesAndEquality(t *testing.T) {
	got := applyFilter(queryFixture(), model.TokenFilter{
		MinVolume:    floatPtr(20000),
		Protocol:     "RAYDIUM", // case-insensitive
		MinLiquidity: floatPtr(50000),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "wif", got[0].Address)
}

func TestApplyFilter_PeriodTargetsVolumeField(t *testing.T) {
	// in the 1h window WIF trades 2000 and JUP 800; Bonk carries no 1h
	// figure and falls back to its total volume
	got := applyFilter(queryFixture(), model.TokenFilter{
		Period:    model.Period1h,
		MinVolume: floatPtr(1000),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "wif", got[0].Address)
	assert.Equal(t, "bonk", got[1].Address)
}

func TestApplyFilter_SearchSubstring(t *testing.T) {
	got := applyFilter(queryFixture(), model.TokenFilter{Search: "jup"})
	require.Len(t, got, 1)
	assert.Equal(t, "jup", got[0].Address)

	got = applyFilter(queryFixture(), model.TokenFilter{Search: "WIFHAT"})
	require.Len(t, got, 1)
	assert.Equal(t, "wif", got[0].Address)
}

func TestApplySort_Fields(t *testing.T) {
	cases := []struct {
		field string
		want  []string
	}{
		{model.SortVolume, []string{"bonk", "wif", "jup"}},
		{model.SortMarketCap, []string{"jup", "wif", "bonk"}},
		{model.SortLiquidity, []string{"jup", "wif", "bonk"}},
		{model.SortTxCount, []string{"bonk", "wif", "jup"}},
		{model.SortPriceChange, []string{"wif", "jup", "bonk"}},
		{model.SortCreated, []string{"jup", "wif", "bonk"}},
		{"nonsense", []string{"bonk", "wif", "jup"}}, // falls back to volume
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			tokens := queryFixture()
			applySort(tokens, model.SortSpec{Field: tc.field, Desc: true}, model.Period24h)
			got := make([]string, len(tokens))
			for i, tok := range tokens {
				got[i] = tok.Address
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplySort_Ascending(t *testing.T) {
	tokens := queryFixture()
	applySort(tokens, model.SortSpec{Field: model.SortVolume, Desc: false}, model.Period24h)
	assert.Equal(t, "jup", tokens[0].Address)
	assert.Equal(t, "bonk", tokens[2].Address)
}

func TestPaginate_CursorWalkVisitsEveryTokenOnce(t *testing.T) {
	tokens := utils.NewTokenGenerator().GenerateTokens(7)

	seen := map[string]int{}
	cursor := ""
	pages := 0
	for {
		result := paginate(tokens, model.PageRequest{Limit: 3, Cursor: cursor})
		pages++
		for _, tok := range result.Tokens {
			seen[tok.Address]++
		}
		assert.Equal(t, 7, result.Total)
		if !result.HasMore {
			assert.Empty(t, result.NextCursor)
			break
		}
		cursor = result.NextCursor
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 7)
	for addr, count := range seen {
		assert.Equal(t, 1, count, "token %s visited more than once", addr)
	}
}

func TestPaginate_PrevCursor(t *testing.T) {
	tokens := utils.NewTokenGenerator().GenerateTokens(10)

	first := paginate(tokens, model.PageRequest{Limit: 4})
	assert.Empty(t, first.PrevCursor, "first page has no previous")

	second := paginate(tokens, model.PageRequest{Limit: 4, Cursor: first.NextCursor})
	require.NotEmpty(t, second.PrevCursor)
	assert.Equal(t, 0, decodeCursor(second.PrevCursor))
	assert.Equal(t, tokens[4].Address, second.Tokens[0].Address)
}

func TestPaginate_InvalidCursorResetsToStart(t *testing.T) {
	tokens := queryFixture()
	for _, cursor := range []string{"%%%not-base64%%%", "bm90YW51bWJlcg==", encodeCursor(-5)} {
		result := paginate(tokens, model.PageRequest{Limit: 2, Cursor: cursor})
		require.NotEmpty(t, result.Tokens, "cursor %q", cursor)
		assert.Equal(t, "wif", result.Tokens[0].Address)
	}
}

func TestPaginate_CursorBeyondEnd(t *testing.T) {
	tokens := queryFixture()
	result := paginate(tokens, model.PageRequest{Limit: 2, Cursor: encodeCursor(99)})
	assert.Empty(t, result.Tokens)
	assert.False(t, result.HasMore)
	assert.Equal(t, len(tokens), result.Total)
}

func TestPaginate_LimitBounds(t *testing.T) {
	tokens := utils.NewTokenGenerator().GenerateTokens(300)

	result := paginate(tokens, model.PageRequest{Limit: 0})
	assert.Len(t, result.Tokens, defaultPageLimit)

	result = paginate(tokens, model.PageRequest{Limit: 100000})
	assert.Len(t, result.Tokens, maxPageLimit)
}

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 50, 12345} {
		assert.Equal(t, offset, decodeCursor(encodeCursor(offset)))
	}
}
