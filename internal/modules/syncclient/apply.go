package syncclient

import (
	"encoding/json"
	"strconv"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// Apply writes env's synced keys into store. Missing keys on the
// incoming side are never treated as deletions — out-of-namespace
// local state (and any key env simply omits) is left untouched (spec
// §4.6).
func Apply(store kvStore, env EnvelopeV2) error {
	for id, pct := range env.Platforms.PlatformA.GoalTargets {
		if err := store.Set(configstore.GoalTargetKey(goalIDOf(id)), formatPercent(pct)); err != nil {
			return err
		}
	}
	for id, fixed := range env.Platforms.PlatformA.GoalFixed {
		if err := store.Set(configstore.GoalFixedKey(goalIDOf(id)), strconv.FormatBool(fixed)); err != nil {
			return err
		}
	}

	for code, pct := range env.Platforms.PlatformB.TargetsByCode {
		if err := store.Set(configstore.FSMTargetKey(instrumentCodeOf(code)), formatPercent(pct)); err != nil {
			return err
		}
	}
	for code, fixed := range env.Platforms.PlatformB.FixedByCode {
		if err := store.Set(configstore.FSMFixedKey(instrumentCodeOf(code)), strconv.FormatBool(fixed)); err != nil {
			return err
		}
	}
	for code, tag := range env.Platforms.PlatformB.TagsByCode {
		if err := store.Set(configstore.FSMTagKey(instrumentCodeOf(code)), tag); err != nil {
			return err
		}
	}
	for code, portfolioID := range env.Platforms.PlatformB.AssignmentByCode {
		if err := store.Set(configstore.FSMAssignmentKey(instrumentCodeOf(code)), portfolioID); err != nil {
			return err
		}
	}

	if len(env.Platforms.PlatformB.TagCatalog) > 0 {
		if raw, err := json.Marshal(env.Platforms.PlatformB.TagCatalog); err == nil {
			if err := store.Set(configstore.KeyFSMTagCatalog, string(raw)); err != nil {
				return err
			}
		}
	}

	if raw, err := json.Marshal(env.Platforms.PlatformB.DriftSettings); err == nil {
		if err := store.Set(configstore.KeyFSMDriftSettings, string(raw)); err != nil {
			return err
		}
	}

	if len(env.Platforms.PlatformB.Portfolios) > 0 {
		if raw, err := json.Marshal(env.Platforms.PlatformB.Portfolios); err == nil {
			if err := store.Set(configstore.KeyFSMPortfolios, string(raw)); err != nil {
				return err
			}
		}
	}

	return nil
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64)
}
