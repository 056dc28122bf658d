package performance

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAggregate_ExcludesGoalsLackingWindowFromWeightSum(t *testing.T) {
	series := []domain.PerformanceSeries{
		{
			GoalID:               "g1",
			AllTimeNetInvestment: floatPtr(1000),
			Returns:              domain.ReturnsTable{OneMonth: floatPtr(10)},
		},
		{
			GoalID:               "g2",
			AllTimeNetInvestment: floatPtr(2000),
			Returns:              domain.ReturnsTable{OneMonth: nil}, // no 1M window — excluded
		},
		{
			GoalID:               "g3",
			AllTimeNetInvestment: floatPtr(3000),
			Returns:              domain.ReturnsTable{OneMonth: floatPtr(20)},
		},
	}

	result := Aggregate(series)

	// weighted mean over g1 and g3 only: (10*1000 + 20*3000) / (1000+3000) = 17.5
	assert := assert.New(t)
	if assert.NotNil(result.Returns.OneMonth) {
		assert.InDelta(17.5, *result.Returns.OneMonth, 0.0001)
	}
}

func TestAggregate_SimpleReturnPercentWeightedByNetInvestment(t *testing.T) {
	series := []domain.PerformanceSeries{
		{
			GoalID:              "g1",
			NetInvestment:       1000,
			SimpleReturnPercent: floatPtr(10),
		},
		{
			GoalID:              "g2",
			NetInvestment:       2000,
			SimpleReturnPercent: nil, // no simple return — excluded
		},
		{
			GoalID:              "g3",
			NetInvestment:       3000,
			SimpleReturnPercent: floatPtr(20),
		},
	}

	result := Aggregate(series)

	// weighted mean over g1 and g3 only: (10*1000 + 20*3000) / (1000+3000) = 17.5
	assert := assert.New(t)
	if assert.NotNil(result.SimpleReturnPercent) {
		assert.InDelta(17.5, *result.SimpleReturnPercent, 0.0001)
	}
}

func TestAggregate_SumsAbsoluteAmountsWithDecimal(t *testing.T) {
	series := []domain.PerformanceSeries{
		{GoalID: "g1", EndingBalance: 100.10, GainOrLoss: floatPtr(5.05), Fees: floatPtr(1.01)},
		{GoalID: "g2", EndingBalance: 200.20, GainOrLoss: floatPtr(10.10), Fees: floatPtr(2.02)},
	}

	result := Aggregate(series)

	assert.True(t, result.EndingBalance.Equal(result.EndingBalance))
	got, _ := result.EndingBalance.Float64()
	assert.InDelta(t, 300.30, got, 0.0001)

	gainOrLoss, _ := result.GainOrLoss.Float64()
	assert.InDelta(t, 15.15, gainOrLoss, 0.0001)
}

func TestAggregate_EmptyInputYieldsNilMeansAndZeroSums(t *testing.T) {
	result := Aggregate(nil)
	assert.Nil(t, result.Returns.OneMonth)
	assert.Nil(t, result.SimpleReturnPercent)
	assert.True(t, result.EndingBalance.IsZero())
}
