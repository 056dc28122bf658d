package normalizer

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBuildBucketMap_NilInputReturnsFalse(t *testing.T) {
	bm, ok := BuildBucketMap(nil, []InvestibleRecord{}, []SummaryRecord{})
	assert.False(t, ok)
	assert.Nil(t, bm)
}

func TestBuildBucketMap_EmptyInputsAreValid(t *testing.T) {
	bm, ok := BuildBucketMap([]PerformanceRecord{}, []InvestibleRecord{}, []SummaryRecord{})
	require.True(t, ok)
	assert.Empty(t, bm.Buckets)
}

func TestBuildBucketMap_BucketExtraction(t *testing.T) {
	names := []string{"Retirement - Core", "Retirement - Satellite", "Emergency Fund", "  "}
	performance := make([]PerformanceRecord, len(names))
	investible := make([]InvestibleRecord, len(names))
	summary := make([]SummaryRecord, len(names))

	for i, name := range names {
		id := domain.GoalId(name + "-id")
		performance[i] = PerformanceRecord{
			GoalID:                id,
			TotalInvestmentValue:    f(100),
			PendingProcessingAmount: f(0),
			TotalCumulativeReturn:   f(10),
		}
		investible[i] = InvestibleRecord{GoalID: id, GoalName: name, InvestmentGoalType: "INVESTMENT"}
		summary[i] = SummaryRecord{GoalID: id, GoalName: name, InvestmentGoalType: "INVESTMENT"}
	}

	bm, ok := BuildBucketMap(performance, investible, summary)
	require.True(t, ok)

	bucketNames := bm.BucketNames()
	assert.ElementsMatch(t, []string{"Retirement", "Emergency Fund", "Uncategorized"}, bucketNames)

	retirement := bm.Buckets["Retirement"]
	require.NotNil(t, retirement)
	group := retirement.Groups[domain.GoalType("INVESTMENT")]
	require.NotNil(t, group)
	assert.Len(t, group.Goals, 2)
}

func TestBuildBucketMap_EndingBalanceFallback(t *testing.T) {
	id := domain.GoalId("g1")
	performance := []PerformanceRecord{{GoalID: id}} // no totalInvestmentValue
	investible := []InvestibleRecord{{GoalID: id, GoalName: "Core", TotalInvestmentAmount: f(555.5)}}
	summary := []SummaryRecord{{GoalID: id, GoalName: "Core"}}

	bm, ok := BuildBucketMap(performance, investible, summary)
	require.True(t, ok)

	goals := bm.AllGoals()
	require.Len(t, goals, 1)
	require.NotNil(t, goals[0].EndingBalanceAmount)
	assert.Equal(t, 555.5, *goals[0].EndingBalanceAmount)
}

func TestBuildBucketMap_Totals(t *testing.T) {
	ids := []string{"a", "b", "c"}
	performance := make([]PerformanceRecord, 0, len(ids))
	investible := make([]InvestibleRecord, 0, len(ids))
	summary := make([]SummaryRecord, 0, len(ids))
	for _, id := range ids {
		performance = append(performance, PerformanceRecord{
			GoalID:                  domain.GoalId(id),
			TotalInvestmentValue:    f(100),
			PendingProcessingAmount: f(0),
			TotalCumulativeReturn:   f(5),
		})
		investible = append(investible, InvestibleRecord{GoalID: domain.GoalId(id), GoalName: "Goal " + id})
		summary = append(summary, SummaryRecord{GoalID: domain.GoalId(id), GoalName: "Goal " + id})
	}

	bm, ok := BuildBucketMap(performance, investible, summary)
	require.True(t, ok)

	var sumNonNull float64
	for _, g := range bm.AllGoals() {
		if g.EndingBalanceAmount != nil {
			sumNonNull += *g.EndingBalanceAmount
		}
	}
	assert.Equal(t, sumNonNull, bm.Meta.EndingBalanceTotal)
}
