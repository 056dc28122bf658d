package analytics

import (
	"strconv"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// SetProjectedInvestment persists a session-scoped projected
// additional SGD amount for a bucket/goal-type pair. Never part of the
// sync envelope (configstore.IsSynced excludes the "proj_invest_"
// prefix).
func SetProjectedInvestment(store *configstore.Store, bucket string, goalType domain.GoalType, amount float64) error {
	return store.Set(configstore.ProjectedInvestmentKey(bucket, goalType), strconv.FormatFloat(amount, 'f', 2, 64))
}

// GetProjectedInvestment returns the projected amount for a
// bucket/goal-type pair, or 0 if unset.
func GetProjectedInvestment(store *configstore.Store, bucket string, goalType domain.GoalType) (float64, error) {
	raw, err := store.Get(configstore.ProjectedInvestmentKey(bucket, goalType))
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return 0, nil
	}
	return v, nil
}

// ClearProjectedInvestment removes a bucket/goal-type pair's
// projected amount.
func ClearProjectedInvestment(store *configstore.Store, bucket string, goalType domain.GoalType) error {
	return store.Delete(configstore.ProjectedInvestmentKey(bucket, goalType))
}
