// Package analytics turns a domain.BucketMap plus the config store's
// overrides (targets, fixed flags, tags, portfolio assignments,
// projected investments) into pure view-model data structures. No
// builder here performs I/O — callers load an Overrides snapshot once
// and pass it through.
package analytics

import (
	"strconv"
	"strings"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// Overrides is a read-only snapshot of the config store's override
// keys, loaded once per view-model build so the builders below stay
// pure functions.
type Overrides struct {
	GoalTargetPct map[domain.GoalId]float64
	GoalFixed     map[domain.GoalId]bool

	InstrumentTargetPct map[domain.InstrumentCode]float64
	InstrumentFixed     map[domain.InstrumentCode]bool
	InstrumentTag       map[domain.InstrumentCode]string
	InstrumentPortfolio map[domain.InstrumentCode]string
}

// LoadOverrides reads every override key out of store into one
// snapshot.
func LoadOverrides(store *configstore.Store) (Overrides, error) {
	o := Overrides{
		GoalTargetPct:       make(map[domain.GoalId]float64),
		GoalFixed:           make(map[domain.GoalId]bool),
		InstrumentTargetPct: make(map[domain.InstrumentCode]float64),
		InstrumentFixed:     make(map[domain.InstrumentCode]bool),
		InstrumentTag:       make(map[domain.InstrumentCode]string),
		InstrumentPortfolio: make(map[domain.InstrumentCode]string),
	}

	if err := loadPercentKeys(store, configstore.PrefixGoalTargetPct, func(id string, v float64) {
		o.GoalTargetPct[domain.GoalId(id)] = v
	}); err != nil {
		return o, err
	}
	if err := loadBoolKeys(store, configstore.PrefixGoalFixed, func(id string, v bool) {
		o.GoalFixed[domain.GoalId(id)] = v
	}); err != nil {
		return o, err
	}
	if err := loadPercentKeys(store, configstore.PrefixFSMTarget, func(code string, v float64) {
		o.InstrumentTargetPct[domain.InstrumentCode(code)] = v
	}); err != nil {
		return o, err
	}
	if err := loadBoolKeys(store, configstore.PrefixFSMFixed, func(code string, v bool) {
		o.InstrumentFixed[domain.InstrumentCode(code)] = v
	}); err != nil {
		return o, err
	}
	if err := loadStringKeys(store, configstore.PrefixFSMTag, func(code, v string) {
		o.InstrumentTag[domain.InstrumentCode(code)] = v
	}); err != nil {
		return o, err
	}
	if err := loadStringKeys(store, configstore.PrefixFSMAssignment, func(code, v string) {
		o.InstrumentPortfolio[domain.InstrumentCode(code)] = v
	}); err != nil {
		return o, err
	}

	return o, nil
}

func loadPercentKeys(store *configstore.Store, prefix string, assign func(id string, v float64)) error {
	keys, err := store.Keys(prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		v, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			continue
		}
		assign(strings.TrimPrefix(key, prefix), v)
	}
	return nil
}

func loadBoolKeys(store *configstore.Store, prefix string, assign func(id string, v bool)) error {
	keys, err := store.Keys(prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		assign(strings.TrimPrefix(key, prefix), *raw == "true")
	}
	return nil
}

func loadStringKeys(store *configstore.Store, prefix string, assign func(id, v string)) error {
	keys, err := store.Keys(prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		raw, err := store.Get(key)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		assign(strings.TrimPrefix(key, prefix), *raw)
	}
	return nil
}
