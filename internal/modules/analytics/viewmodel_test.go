package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent_MarshalsAsPlainNumberRoundedTo2dp(t *testing.T) {
	p := NewPercent(12.3456)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, "12.35", string(b))
}

func TestAmount_MarshalsWithoutNegativeZero(t *testing.T) {
	a := NewAmount(-0.001)
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, "0.00", string(b))
}

func TestGoalTypeSummary_MarshalsExpectedShape(t *testing.T) {
	s := GoalTypeSummary{
		GoalType:      "retirement",
		EndingBalance: NewAmount(1000),
		GrowthPercent: NewPercent(5.5),
		RemainingPct:  NewPercent(0),
		RemainingFlag: false,
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "retirement", decoded["goalType"])
	assert.NotContains(t, decoded, "driftSumAbs")
}
