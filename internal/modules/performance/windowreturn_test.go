package performance

import (
	"testing"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDeriveWindowReturn_SpecScenario3(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: mustDate("2024-01-01"), Amount: floatPtr(100), CumulativeNetInvestmentAmount: floatPtr(100)},
		{Date: mustDate("2024-02-01"), Amount: floatPtr(150), CumulativeNetInvestmentAmount: floatPtr(120)},
	}

	got := DeriveWindowReturn(series, mustDate("2024-01-01"))
	require.NotNil(t, got)
	assert.InDelta(t, 30.0, *got, 0.0001)
}

func TestDeriveWindowReturn_NonPositiveStartYieldsNil(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: mustDate("2024-01-01"), Amount: floatPtr(0), CumulativeNetInvestmentAmount: floatPtr(0)},
		{Date: mustDate("2024-02-01"), Amount: floatPtr(150), CumulativeNetInvestmentAmount: floatPtr(120)},
	}

	got := DeriveWindowReturn(series, mustDate("2024-01-01"))
	assert.Nil(t, got)
}

func TestDeriveWindowReturn_MissingAmountsAreNilNotZero(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: mustDate("2024-01-01"), Amount: nil, CumulativeNetInvestmentAmount: floatPtr(100)},
		{Date: mustDate("2024-02-01"), Amount: floatPtr(150), CumulativeNetInvestmentAmount: floatPtr(120)},
	}

	got := DeriveWindowReturn(series, mustDate("2024-01-01"))
	assert.Nil(t, got)
}

func TestDeriveWindowReturn_FallsBackToEarliestWhenNoPointPrecedesWindow(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: mustDate("2024-03-01"), Amount: floatPtr(200), CumulativeNetInvestmentAmount: floatPtr(150)},
		{Date: mustDate("2024-04-01"), Amount: floatPtr(210), CumulativeNetInvestmentAmount: floatPtr(150)},
	}

	got := DeriveWindowReturn(series, mustDate("2024-01-01"))
	require.NotNil(t, got)
	assert.InDelta(t, 5.0, *got, 0.0001)
}

func TestDeriveWindowReturn_NegativeAdjustedEndIsKept(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Date: mustDate("2024-01-01"), Amount: floatPtr(100), CumulativeNetInvestmentAmount: floatPtr(100)},
		{Date: mustDate("2024-02-01"), Amount: floatPtr(-50), CumulativeNetInvestmentAmount: floatPtr(100)},
	}

	got := DeriveWindowReturn(series, mustDate("2024-01-01"))
	require.NotNil(t, got)
	assert.InDelta(t, -150.0, *got, 0.0001)
}
