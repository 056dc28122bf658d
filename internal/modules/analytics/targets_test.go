package analytics

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGoalTarget_RefusesWhenFixed(t *testing.T) {
	store := newTestStore(t)
	pct := 42.0
	err := SetGoalTarget(store, "g1", &pct, true)
	assert.ErrorIs(t, err, ErrFixedTarget)
}

func TestSetGoalTarget_PersistsAndClears(t *testing.T) {
	store := newTestStore(t)
	pct := 42.5
	require.NoError(t, SetGoalTarget(store, "g1", &pct, false))

	v, err := store.Get(configstore.GoalTargetKey("g1"))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "42.50", *v)

	require.NoError(t, SetGoalTarget(store, "g1", nil, false))
	v, err = store.Get(configstore.GoalTargetKey("g1"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSetGoalFixed_LocksCurrentShare(t *testing.T) {
	store := newTestStore(t)
	share := 33.33
	require.NoError(t, SetGoalFixed(store, "g1", true, &share))

	fixed, err := store.Get(configstore.GoalFixedKey("g1"))
	require.NoError(t, err)
	require.NotNil(t, fixed)
	assert.Equal(t, "true", *fixed)

	target, err := store.Get(configstore.GoalTargetKey("g1"))
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "33.33", *target)
}
