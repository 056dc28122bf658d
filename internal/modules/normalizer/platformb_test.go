package normalizer

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildHoldingsBucketMap_FiltersDPMSHeader(t *testing.T) {
	rows := []domain.HoldingRow{
		{Code: "A1", Name: "Fund A", ProductType: "UNIT_TRUST", CurrentValueLcy: 1000},
		{Code: "H1", Name: "Header", ProductType: "DPMS_HEADER", CurrentValueLcy: 9999},
	}

	bm := BuildHoldingsBucketMap(rows)
	goals := bm.AllGoals()
	assert.Len(t, goals, 1)
	assert.Equal(t, domain.GoalId("A1"), goals[0].GoalID)
}
