package analytics

import "github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"

// PortfolioScope selects which Platform-B holdings a trade-suggestion
// pass considers: every holding, one named portfolio, or holdings with
// no portfolio assignment at all.
type PortfolioScope struct {
	All         bool
	Unassigned  bool
	Name        string // meaningful only when All and Unassigned are false
}

func (s PortfolioScope) matches(assigned string) bool {
	switch {
	case s.All:
		return true
	case s.Unassigned:
		return assigned == ""
	default:
		return assigned == s.Name
	}
}

// TradeSuggestion is one instrument's suggested buy/sell amount within
// a portfolio scope.
type TradeSuggestion struct {
	Code         domain.InstrumentCode
	CurrentValue float64
	TargetValue  float64
	Trade        float64 // positive = buy, negative = sell
}

// HoldingInput is the minimal per-holding shape trade suggestions need.
type HoldingInput struct {
	Code       domain.InstrumentCode
	Value      float64
	TargetPct  float64 // 0-100
	Portfolio  string
}

// TradeSuggestions computes buy/sell amounts for every holding within
// scope: targetValue_i = targetPct_i/100 × V, trade_i = targetValue_i
// − currentValue_i, where V is the scope's total current value.
func TradeSuggestions(holdings []HoldingInput, scope PortfolioScope) []TradeSuggestion {
	var inScope []HoldingInput
	var total float64
	for _, h := range holdings {
		if !scope.matches(h.Portfolio) {
			continue
		}
		inScope = append(inScope, h)
		total += h.Value
	}

	suggestions := make([]TradeSuggestion, 0, len(inScope))
	for _, h := range inScope {
		targetValue := h.TargetPct / 100 * total
		suggestions = append(suggestions, TradeSuggestion{
			Code:         h.Code,
			CurrentValue: h.Value,
			TargetValue:  targetValue,
			Trade:        targetValue - h.Value,
		})
	}
	return suggestions
}
