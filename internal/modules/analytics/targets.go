package analytics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// ErrFixedTarget is returned when editing the target of a goal or
// instrument whose fixed flag is set — a fixed target locks to the
// current allocation share and is excluded from further editing.
var ErrFixedTarget = errors.New("analytics: target is fixed and cannot be edited")

// SetGoalTarget persists pct (0-100, two decimals) as id's target, or
// clears it when pct is nil (an empty string in the UI). Refuses to
// edit a fixed goal.
func SetGoalTarget(store *configstore.Store, id domain.GoalId, pct *float64, fixed bool) error {
	if fixed {
		return ErrFixedTarget
	}
	key := configstore.GoalTargetKey(id)
	if pct == nil {
		return store.Delete(key)
	}
	return store.Set(key, formatPercent(*pct))
}

// SetGoalFixed sets or clears the fixed flag for a goal. Setting fixed
// does not itself compute or persist the locked target — callers pass
// the goal's current allocation share as pct when fixing.
func SetGoalFixed(store *configstore.Store, id domain.GoalId, fixed bool, pct *float64) error {
	if err := store.Set(configstore.GoalFixedKey(id), strconv.FormatBool(fixed)); err != nil {
		return err
	}
	if fixed && pct != nil {
		return store.Set(configstore.GoalTargetKey(id), formatPercent(*pct))
	}
	return nil
}

// SetInstrumentTarget is SetGoalTarget's Platform-B counterpart.
func SetInstrumentTarget(store *configstore.Store, code domain.InstrumentCode, pct *float64, fixed bool) error {
	if fixed {
		return ErrFixedTarget
	}
	key := configstore.FSMTargetKey(code)
	if pct == nil {
		return store.Delete(key)
	}
	return store.Set(key, formatPercent(*pct))
}

// SetInstrumentFixed is SetGoalFixed's Platform-B counterpart.
func SetInstrumentFixed(store *configstore.Store, code domain.InstrumentCode, fixed bool, pct *float64) error {
	if err := store.Set(configstore.FSMFixedKey(code), strconv.FormatBool(fixed)); err != nil {
		return err
	}
	if fixed && pct != nil {
		return store.Set(configstore.FSMTargetKey(code), formatPercent(*pct))
	}
	return nil
}

func formatPercent(pct float64) string {
	return fmt.Sprintf("%.2f", pct)
}
