package performance

import (
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// AggregateResult is the portfolio-wide rollup of many goals'
// PerformanceSeries.
type AggregateResult struct {
	Returns             domain.ReturnsTable
	AnnualisedIRR       *float64
	SimpleReturnPercent *float64

	GainOrLoss    decimal.Decimal
	Fees          decimal.Decimal
	EndingBalance decimal.Decimal
}

// Aggregate combines series into one AggregateResult. Percent metrics
// are weighted means; absolute amounts are summed with decimal
// arithmetic to avoid float drift across many goals.
func Aggregate(series []domain.PerformanceSeries) AggregateResult {
	var result AggregateResult
	result.GainOrLoss = decimal.Zero
	result.Fees = decimal.Zero
	result.EndingBalance = decimal.Zero

	result.Returns.OneMonth = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.Returns.OneMonth, allTimeNetInvestmentWeight(p)
	})
	result.Returns.SixMonth = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.Returns.SixMonth, allTimeNetInvestmentWeight(p)
	})
	result.Returns.YTD = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.Returns.YTD, allTimeNetInvestmentWeight(p)
	})
	result.Returns.OneYear = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.Returns.OneYear, allTimeNetInvestmentWeight(p)
	})
	result.Returns.ThreeYear = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.Returns.ThreeYear, allTimeNetInvestmentWeight(p)
	})
	result.AnnualisedIRR = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.AnnualisedIRR, allTimeNetInvestmentWeight(p)
	})
	result.SimpleReturnPercent = weightedMean(series, func(p domain.PerformanceSeries) (*float64, *float64) {
		return p.SimpleReturnPercent, netInvestmentWeight(p)
	})

	for _, p := range series {
		if p.GainOrLoss != nil {
			result.GainOrLoss = result.GainOrLoss.Add(decimal.NewFromFloat(*p.GainOrLoss))
		}
		if p.Fees != nil {
			result.Fees = result.Fees.Add(decimal.NewFromFloat(*p.Fees))
		}
		result.EndingBalance = result.EndingBalance.Add(decimal.NewFromFloat(p.EndingBalance))
	}

	return result
}

func netInvestmentWeight(p domain.PerformanceSeries) *float64 {
	v := p.NetInvestment
	return &v
}

func allTimeNetInvestmentWeight(p domain.PerformanceSeries) *float64 {
	return p.AllTimeNetInvestment
}

// weightedMean computes stat.Mean over the subset of series whose
// extractor yields both a value and a weight. Goals lacking either are
// excluded entirely — they contribute no weight.
func weightedMean(series []domain.PerformanceSeries, extract func(domain.PerformanceSeries) (value, weight *float64)) *float64 {
	var values, weights []float64
	for _, p := range series {
		value, weight := extract(p)
		if value == nil || weight == nil {
			continue
		}
		values = append(values, *value)
		weights = append(weights, *weight)
	}
	if len(values) == 0 {
		return nil
	}

	mean := stat.Mean(values, weights)
	return &mean
}
