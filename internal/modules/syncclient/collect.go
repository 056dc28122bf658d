package syncclient

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// kvStore is the subset of configstore.Store the collector/applier
// need.
type kvStore interface {
	Get(key string) (*string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// Collect reads every synced key out of store and builds the v2
// envelope. Fixed goals/instruments contribute only their fixed flag,
// never a target percentage — prevents spurious conflicts from a
// locked target drifting with allocation.
func Collect(store kvStore, nowMs int64) (EnvelopeV2, error) {
	env := EnvelopeV2{
		Version: 2,
		Platforms: Platforms{
			PlatformA: PlatformA{GoalTargets: map[string]float64{}, GoalFixed: map[string]bool{}},
			PlatformB: PlatformB{
				TargetsByCode:    map[string]float64{},
				FixedByCode:      map[string]bool{},
				TagsByCode:       map[string]string{},
				AssignmentByCode: map[string]string{},
			},
		},
		Metadata: EnvelopeMetadata{LastModified: nowMs},
	}

	fixedGoals, err := collectBoolPrefix(store, configstore.PrefixGoalFixed)
	if err != nil {
		return env, err
	}
	env.Platforms.PlatformA.GoalFixed = fixedGoals

	targets, err := collectPercentPrefix(store, configstore.PrefixGoalTargetPct)
	if err != nil {
		return env, err
	}
	for id, pct := range targets {
		if fixedGoals[id] {
			continue
		}
		env.Platforms.PlatformA.GoalTargets[id] = pct
	}

	fixedInstruments, err := collectBoolPrefix(store, configstore.PrefixFSMFixed)
	if err != nil {
		return env, err
	}
	env.Platforms.PlatformB.FixedByCode = fixedInstruments

	instrumentTargets, err := collectPercentPrefix(store, configstore.PrefixFSMTarget)
	if err != nil {
		return env, err
	}
	for code, pct := range instrumentTargets {
		if fixedInstruments[code] {
			continue
		}
		env.Platforms.PlatformB.TargetsByCode[code] = pct
	}

	tags, err := collectStringPrefix(store, configstore.PrefixFSMTag)
	if err != nil {
		return env, err
	}
	env.Platforms.PlatformB.TagsByCode = tags

	assignments, err := collectStringPrefix(store, configstore.PrefixFSMAssignment)
	if err != nil {
		return env, err
	}
	env.Platforms.PlatformB.AssignmentByCode = assignments

	if raw, err := store.Get(configstore.KeyFSMTagCatalog); err != nil {
		return env, err
	} else if raw != nil {
		_ = json.Unmarshal([]byte(*raw), &env.Platforms.PlatformB.TagCatalog)
	}

	if raw, err := store.Get(configstore.KeyFSMDriftSettings); err != nil {
		return env, err
	} else if raw != nil {
		_ = json.Unmarshal([]byte(*raw), &env.Platforms.PlatformB.DriftSettings)
	}

	if raw, err := store.Get(configstore.KeyFSMPortfolios); err != nil {
		return env, err
	} else if raw != nil {
		_ = json.Unmarshal([]byte(*raw), &env.Platforms.PlatformB.Portfolios)
	}

	return env, nil
}

func collectBoolPrefix(store kvStore, prefix string) (map[string]bool, error) {
	out := map[string]bool{}
	keys, err := store.Keys(prefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = *raw == "true"
	}
	return out, nil
}

func collectPercentPrefix(store kvStore, prefix string) (map[string]float64, error) {
	out := map[string]float64{}
	keys, err := store.Keys(prefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		v, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = v
	}
	return out, nil
}

func collectStringPrefix(store kvStore, prefix string) (map[string]string, error) {
	out := map[string]string{}
	keys, err := store.Keys(prefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = *raw
	}
	return out, nil
}
