package analytics

import (
	"sort"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/normalizer"
)

// BuildSummaryViewModel assembles the overlay's summary screen from a
// BucketMap and a snapshot of overrides. It performs no I/O and is
// referentially transparent for a given (bucketMap, overrides) pair.
func BuildSummaryViewModel(bucketMap *domain.BucketMap, overrides Overrides) SummaryViewModel {
	vm := SummaryViewModel{TotalEndingBalance: NewAmount(bucketMap.Meta.EndingBalanceTotal)}

	for _, bucketName := range bucketMap.BucketNames() {
		bucket := bucketMap.Buckets[bucketName]
		bucketSummary := BucketSummary{Bucket: bucketName}

		goalTypeNames := sortedGoalTypes(bucket)
		for _, goalType := range goalTypeNames {
			group := bucket.Groups[goalType]
			growth := normalizer.GrowthPercent(group.EndingBalanceAmount, group.TotalCumulativeReturn)

			assignedTargets := make([]float64, 0, len(group.Goals))
			driftInputs := make([]DriftInput, 0, len(group.Goals))
			for _, g := range group.Goals {
				if pct, ok := targetForGoal(overrides, g.GoalID); ok {
					assignedTargets = append(assignedTargets, pct)
					actual := 0.0
					if g.EndingBalanceAmount != nil {
						actual = *g.EndingBalanceAmount
					}
					driftInputs = append(driftInputs, DriftInput{
						GoalID:       string(g.GoalID),
						ActualAmount: actual,
						TargetPct:    pct,
					})
				}
			}

			remaining := RemainingPercent(assignedTargets)
			goalTypeSummary := GoalTypeSummary{
				GoalType:      goalType,
				EndingBalance: NewAmount(group.EndingBalanceAmount),
				GrowthPercent: NewPercent(growth),
				RemainingPct:  NewPercent(remaining.Remaining),
				RemainingFlag: remaining.Flagged,
			}

			_, sumAbsDrift, anyIncluded := GoalTypeDrift(driftInputs, group.EndingBalanceAmount)
			if GoalTypeDriftEmitted(anyIncluded, remaining.Remaining) {
				d := NewPercent(sumAbsDrift)
				goalTypeSummary.DriftSumAbs = &d
			}

			bucketSummary.GoalTypes = append(bucketSummary.GoalTypes, goalTypeSummary)
			bucketSummary.EndingBalance.Decimal = bucketSummary.EndingBalance.Decimal.Add(NewAmount(group.EndingBalanceAmount).Decimal)
		}

		bucketGrowth := normalizer.GrowthPercent(bucketEndingBalance(bucket), bucketCumulativeReturn(bucket))
		bucketSummary.GrowthPercent = NewPercent(bucketGrowth)

		vm.Buckets = append(vm.Buckets, bucketSummary)
	}

	return vm
}

// BuildBucketDetailViewModel assembles the drill-down view for one
// bucket.
func BuildBucketDetailViewModel(bucketName string, bucketMap *domain.BucketMap, overrides Overrides) BucketDetailViewModel {
	vm := BucketDetailViewModel{Bucket: bucketName}

	bucket, ok := bucketMap.Buckets[bucketName]
	if !ok {
		return vm
	}

	for _, goalType := range sortedGoalTypes(bucket) {
		group := bucket.Groups[goalType]
		for _, g := range group.Goals {
			var ending float64
			if g.EndingBalanceAmount != nil {
				ending = *g.EndingBalanceAmount
			}
			var cumulative float64
			if g.TotalCumulativeReturn != nil {
				cumulative = *g.TotalCumulativeReturn
			}

			detail := GoalDetail{
				GoalID:        g.GoalID,
				GoalName:      g.GoalName,
				EndingBalance: NewAmount(ending),
				GrowthPercent: NewPercent(normalizer.GrowthPercent(ending, cumulative)),
				Fixed:         fixedForGoal(overrides, g.GoalID),
			}
			if pct, ok := targetForGoal(overrides, g.GoalID); ok {
				p := NewPercent(pct)
				detail.TargetPct = &p
			}

			vm.Goals = append(vm.Goals, detail)
			vm.EndingBalance.Decimal = vm.EndingBalance.Decimal.Add(detail.EndingBalance.Decimal)
		}
	}

	return vm
}

// targetForGoal resolves a goal's target percent, falling back to the
// instrument-level override when the goal has none of its own. A
// Platform-B-derived goal's GoalID is literally its InstrumentCode, so
// a target set via SetInstrumentTarget must still surface here.
func targetForGoal(overrides Overrides, goalID domain.GoalId) (float64, bool) {
	if pct, ok := overrides.GoalTargetPct[goalID]; ok {
		return pct, true
	}
	pct, ok := overrides.InstrumentTargetPct[domain.InstrumentCode(goalID)]
	return pct, ok
}

// fixedForGoal mirrors targetForGoal for the fixed flag.
func fixedForGoal(overrides Overrides, goalID domain.GoalId) bool {
	if fixed, ok := overrides.GoalFixed[goalID]; ok {
		return fixed
	}
	return overrides.InstrumentFixed[domain.InstrumentCode(goalID)]
}

func sortedGoalTypes(bucket *domain.Bucket) []domain.GoalType {
	names := make([]domain.GoalType, 0, len(bucket.Groups))
	for goalType := range bucket.Groups {
		names = append(names, goalType)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func bucketEndingBalance(b *domain.Bucket) float64 {
	var total float64
	for _, group := range b.Groups {
		total += group.EndingBalanceAmount
	}
	return total
}

func bucketCumulativeReturn(b *domain.Bucket) float64 {
	var total float64
	for _, group := range b.Groups {
		total += group.TotalCumulativeReturn
	}
	return total
}
