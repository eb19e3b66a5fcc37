package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddSource_UniqueMembership(t *testing.T) {
	tok := &Token{}
	tok.AddSource("dexscreener")
	tok.AddSource("dexscreener")
	tok.AddSource("geckoterminal")
	tok.AddSource("")

	assert.Equal(t, []string{"dexscreener", "geckoterminal"}, tok.Sources)
	assert.True(t, tok.HasSource("dexscreener"))
	assert.False(t, tok.HasSource("raydium"))
}

func TestCopy_IsolatesMutableFields(t *testing.T) {
	tok := &Token{
		Address: "mint1",
		Socials: map[string]string{"twitter": "x.com/t"},
		Sources: []string{"dexscreener"},
	}

	c := tok.Copy()
	c.Socials["twitter"] = "changed"
	c.Sources[0] = "changed"
	c.AddSource("raydium")

	assert.Equal(t, "x.com/t", tok.Socials["twitter"])
	assert.Equal(t, []string{"dexscreener"}, tok.Sources)
}

func TestVolumeForPeriod(t *testing.T) {
	tok := &Token{VolumeUsd: 100, Volume1h: 10, Volume24h: 50}

	assert.Equal(t, 10.0, tok.VolumeForPeriod(Period1h))
	assert.Equal(t, 50.0, tok.VolumeForPeriod(Period24h))
	assert.Equal(t, 50.0, tok.VolumeForPeriod("bogus"), "unknown period reads as 24h")
	assert.Equal(t, 100.0, tok.VolumeForPeriod(Period7d), "zero period field falls back to total")
}

func TestPriceChangeForPeriod(t *testing.T) {
	tok := &Token{PriceChange1h: 1, PriceChange24h: 2, PriceChange7d: 3}

	assert.Equal(t, 1.0, tok.PriceChangeForPeriod(Period1h))
	assert.Equal(t, 2.0, tok.PriceChangeForPeriod(Period24h))
	assert.Equal(t, 3.0, tok.PriceChangeForPeriod(Period7d))
	assert.Equal(t, 2.0, tok.PriceChangeForPeriod(""))
}

func TestNormalizePeriod(t *testing.T) {
	assert.Equal(t, Period1h, NormalizePeriod("1h"))
	assert.Equal(t, Period7d, NormalizePeriod("7d"))
	assert.Equal(t, Period24h, NormalizePeriod("24h"))
	assert.Equal(t, Period24h, NormalizePeriod(""))
	assert.Equal(t, Period24h, NormalizePeriod("1y"))
}
