package performance

import (
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
)

// DeriveWindowReturn derives a window return percent from a time
// series when the API's returnsTable omits it, following this
// five-step fallback:
//
//  1. start point = latest observation with date ≤ windowStart, or the
//     earliest observation if none qualifies.
//  2. endAmt/startAmt are the amounts at end/start; ΔnetInv is the
//     change in cumulative net investment over the window.
//  3. adjusted = endAmt − ΔnetInv; return = (adjusted − startAmt) /
//     startAmt * 100, requiring startAmt > 0.
//  4. startAmt ≤ 0 yields nil; negative adjusted ends are kept as-is.
//  5. nil amounts are missing, never coerced to zero.
func DeriveWindowReturn(series []domain.TimeSeriesPoint, windowStart time.Time) *float64 {
	if len(series) == 0 {
		return nil
	}

	end := series[len(series)-1]
	start := selectStartPoint(series, windowStart)

	if end.Amount == nil || start.Amount == nil {
		return nil
	}
	startAmt := *start.Amount
	if startAmt <= 0 {
		return nil
	}

	endAmt := *end.Amount
	deltaNetInv := netInvestmentDelta(start, end)

	adjusted := endAmt - deltaNetInv
	pct := (adjusted - startAmt) / startAmt * 100
	return &pct
}

// selectStartPoint picks the latest observation with date ≤
// windowStart, falling back to the earliest observation in series.
func selectStartPoint(series []domain.TimeSeriesPoint, windowStart time.Time) domain.TimeSeriesPoint {
	var best *domain.TimeSeriesPoint
	for i := range series {
		p := series[i]
		if p.Date.After(windowStart) {
			continue
		}
		if best == nil || p.Date.After(best.Date) {
			best = &series[i]
		}
	}
	if best != nil {
		return *best
	}
	return series[0]
}

// netInvestmentDelta is the change in cumulativeNetInvestmentAmount
// over the window; a nil value at either end makes the delta 0
// (contributions/redemptions are simply not accounted for rather than
// propagating a missing value into the return math).
func netInvestmentDelta(start, end domain.TimeSeriesPoint) float64 {
	if start.CumulativeNetInvestmentAmount == nil || end.CumulativeNetInvestmentAmount == nil {
		return 0
	}
	return *end.CumulativeNetInvestmentAmount - *start.CumulativeNetInvestmentAmount
}
