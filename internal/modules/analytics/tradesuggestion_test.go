package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeSuggestions_AllScope(t *testing.T) {
	holdings := []HoldingInput{
		{Code: "A", Value: 600, TargetPct: 50, Portfolio: "core"},
		{Code: "B", Value: 400, TargetPct: 50, Portfolio: "satellite"},
	}

	suggestions := TradeSuggestions(holdings, PortfolioScope{All: true})
	require.Len(t, suggestions, 2)

	byCode := map[string]TradeSuggestion{}
	for _, s := range suggestions {
		byCode[string(s.Code)] = s
	}

	assert.InDelta(t, -100.0, byCode["A"].Trade, 0.0001) // target 500, holds 600 -> sell 100
	assert.InDelta(t, 100.0, byCode["B"].Trade, 0.0001)  // target 500, holds 400 -> buy 100
}

func TestTradeSuggestions_ScopedToNamedPortfolio(t *testing.T) {
	holdings := []HoldingInput{
		{Code: "A", Value: 600, TargetPct: 100, Portfolio: "core"},
		{Code: "B", Value: 400, TargetPct: 50, Portfolio: "satellite"},
	}

	suggestions := TradeSuggestions(holdings, PortfolioScope{Name: "core"})
	require.Len(t, suggestions, 1)
	assert.Equal(t, "A", string(suggestions[0].Code))
	assert.InDelta(t, 0.0, suggestions[0].Trade, 0.0001)
}

func TestTradeSuggestions_UnassignedScope(t *testing.T) {
	holdings := []HoldingInput{
		{Code: "A", Value: 100, TargetPct: 100, Portfolio: ""},
		{Code: "B", Value: 400, TargetPct: 50, Portfolio: "satellite"},
	}

	suggestions := TradeSuggestions(holdings, PortfolioScope{Unassigned: true})
	require.Len(t, suggestions, 1)
	assert.Equal(t, "A", string(suggestions[0].Code))
}
