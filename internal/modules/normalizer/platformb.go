package normalizer

import "github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"

// BuildHoldingsBucketMap builds a domain.BucketMap from a single
// Platform-B holdings payload. Unlike Platform A's three-stream merge,
// there is exactly one source of truth, so goal-type is always
// UnknownGoalType (Platform B has no goal-type concept) and each
// holding becomes its own Goal keyed by its InstrumentCode.
func BuildHoldingsBucketMap(rows []domain.HoldingRow) *domain.BucketMap {
	bucketMap := domain.NewBucketMap()

	for _, row := range domain.FilterHoldingRows(rows) {
		bucketName, _ := domain.SplitGoalName(row.Name)
		value := row.CurrentValueLcy

		bucketMap.Insert(domain.Goal{
			GoalID:              domain.GoalId(row.Code),
			GoalName:            row.Name,
			GoalBucket:          bucketName,
			GoalType:            domain.UnknownGoalType,
			EndingBalanceAmount: &value,
		})
	}

	bucketMap.SortGoals()
	return bucketMap
}
