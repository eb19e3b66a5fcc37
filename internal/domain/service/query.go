package service

import (
	"encoding/base64"
	"sort"
	"strconv"
	"strings"

	"tokenAggApp/internal/domain/model"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 250
)

// applyFilter returns the tokens satisfying every constraint of the filter.
// Constraints are AND-combined; the zero filter matches everything.
func applyFilter(tokens []*model.Token, f model.TokenFilter) []*model.Token {
	period := model.NormalizePeriod(f.Period)
	out := make([]*model.Token, 0, len(tokens))
	for _, t := range tokens {
		if !matchesFilter(t, f, period) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesFilter(t *model.Token, f model.TokenFilter, period string) bool {
	volume := t.VolumeForPeriod(period)
	if f.MinVolume != nil && volume < *f.MinVolume {
		return false
	}
	if f.MaxVolume != nil && volume > *f.MaxVolume {
		return false
	}
	if f.MinMarketCap != nil && t.MarketCapUsd < *f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap != nil && t.MarketCapUsd > *f.MaxMarketCap {
		return false
	}
	if f.MinLiquidity != nil && t.LiquidityUsd < *f.MinLiquidity {
		return false
	}
	if f.Protocol != "" && !strings.EqualFold(f.Protocol, t.Protocol) {
		return false
	}
	if f.Chain != "" && !strings.EqualFold(f.Chain, t.Chain) {
		return false
	}
	if f.Search != "" && !matchesSearch(t, f.Search) {
		return false
	}
	return true
}

// matchesSearch is the case-insensitive substring match over name, ticker
// and address used by both filtering and the search operation.
func matchesSearch(t *model.Token, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Ticker), q) ||
		strings.Contains(strings.ToLower(t.Address), q)
}

// applySort orders tokens in place by the requested field and direction.
// Unrecognized sort fields fall back to volume. Volume and price-change read
// the period-targeted field with the same fallback rule as filtering.
func applySort(tokens []*model.Token, spec model.SortSpec, period string) {
	period = model.NormalizePeriod(period)

	var key func(*model.Token) float64
	switch spec.Field {
	case model.SortPriceChange:
		key = func(t *model.Token) float64 { return t.PriceChangeForPeriod(period) }
	case model.SortMarketCap:
		key = func(t *model.Token) float64 { return t.MarketCapUsd }
	case model.SortLiquidity:
		key = func(t *model.Token) float64 { return t.LiquidityUsd }
	case model.SortTxCount:
		key = func(t *model.Token) float64 { return float64(t.TxCount) }
	case model.SortCreated:
		key = func(t *model.Token) float64 { return float64(t.CreatedAt.UnixNano()) }
	default:
		key = func(t *model.Token) float64 { return t.VolumeForPeriod(period) }
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if spec.Desc {
			return key(tokens[i]) > key(tokens[j])
		}
		return key(tokens[i]) < key(tokens[j])
	})
}

// paginate slices the filtered, sorted sequence at the cursor's offset and
// builds the page envelope. The cursor is positional: any mutation of the
// underlying set between pages can skip or repeat items.
func paginate(tokens []*model.Token, page model.PageRequest) *model.PageResult {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	total := len(tokens)
	start := decodeCursor(page.Cursor)
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	result := &model.PageResult{
		Tokens:  tokens[start:end],
		Total:   total,
		HasMore: end < total,
	}
	if result.HasMore {
		result.NextCursor = encodeCursor(end)
	}
	if start > 0 {
		prev := start - limit
		if prev < 0 {
			prev = 0
		}
		result.PrevCursor = encodeCursor(prev)
	}
	return result
}

// encodeCursor encodes a sequence offset as base64 of its decimal form.
func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// decodeCursor reverses encodeCursor. Anything undecodable means offset
// zero, never an error.
func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
