// Package normalizer builds a domain.BucketMap from Platform A's three
// goal endpoints (performance, investible, summaries) or from Platform
// B's single holdings endpoint.
package normalizer

import (
	"math"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
)

// PerformanceRecord is one row of Platform A's /v1/goals/performance
// response.
type PerformanceRecord struct {
	GoalID                    domain.GoalId
	TotalInvestmentValue      *float64
	PendingProcessingAmount   *float64
	TotalCumulativeReturn     *float64
	SimpleRateOfReturnPercent *float64
}

// InvestibleRecord is one row of Platform A's /v2/goals/investible
// response. TotalInvestmentAmount is, despite its name, the ending
// balance and is only used as a fallback.
type InvestibleRecord struct {
	GoalID                domain.GoalId
	GoalName              string
	InvestmentGoalType    string
	TotalInvestmentAmount *float64
}

// SummaryRecord is one row of Platform A's /v1/goals response.
type SummaryRecord struct {
	GoalID             domain.GoalId
	GoalName           string
	InvestmentGoalType string
}

// BuildBucketMap merges the three Platform-A streams by goal identity
// into a domain.BucketMap.
//
// A nil slice (an endpoint that was never captured, as opposed to one
// captured with zero rows) makes the whole build fail — returning
// (nil, false) — because a half-built view across only some of a
// goal's three sources would misreport balances.
func BuildBucketMap(performance []PerformanceRecord, investible []InvestibleRecord, summary []SummaryRecord) (*domain.BucketMap, bool) {
	if performance == nil || investible == nil || summary == nil {
		return nil, false
	}

	investibleIndex := make(map[domain.GoalId]InvestibleRecord, len(investible))
	for _, rec := range investible {
		investibleIndex[rec.GoalID] = rec
	}

	summaryIndex := make(map[domain.GoalId]SummaryRecord, len(summary))
	for _, rec := range summary {
		summaryIndex[rec.GoalID] = rec
	}

	bucketMap := domain.NewBucketMap()

	for _, perf := range performance {
		inv, hasInv := investibleIndex[perf.GoalID]
		sum, hasSum := summaryIndex[perf.GoalID]

		goalName := firstNonEmpty(
			valueOr(hasInv, inv.GoalName),
			valueOr(hasSum, sum.GoalName),
		)
		bucketName, _ := domain.SplitGoalName(goalName)

		rawType := firstNonEmpty(
			valueOr(hasInv, inv.InvestmentGoalType),
			valueOr(hasSum, sum.InvestmentGoalType),
		)
		goalType := domain.NormalizeGoalType(rawType)

		endingBalance := computeEndingBalance(perf, inv, hasInv)

		bucketMap.Insert(domain.Goal{
			GoalID:                    perf.GoalID,
			GoalName:                  goalName,
			GoalBucket:                bucketName,
			GoalType:                  goalType,
			EndingBalanceAmount:       endingBalance,
			TotalCumulativeReturn:     perf.TotalCumulativeReturn,
			SimpleRateOfReturnPercent: perf.SimpleRateOfReturnPercent,
		})
	}

	bucketMap.SortGoals()
	return bucketMap, true
}

// computeEndingBalance is performance.totalInvestmentValue +
// pendingProcessingAmount when both are finite; otherwise the
// investible endpoint's (misnamed) totalInvestmentAmount.
func computeEndingBalance(perf PerformanceRecord, inv InvestibleRecord, hasInv bool) *float64 {
	if isFiniteValue(perf.TotalInvestmentValue) && isFiniteValue(perf.PendingProcessingAmount) {
		sum := *perf.TotalInvestmentValue + *perf.PendingProcessingAmount
		return &sum
	}
	if hasInv && isFiniteValue(inv.TotalInvestmentAmount) {
		fallback := *inv.TotalInvestmentAmount
		return &fallback
	}
	return nil
}

func isFiniteValue(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func valueOr(has bool, s string) string {
	if !has {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
