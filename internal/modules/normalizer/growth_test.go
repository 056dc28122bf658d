package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrowthPercent(t *testing.T) {
	assert.InDelta(t, 10.0, GrowthPercent(110000, 10000), 1e-9)
	assert.Equal(t, 0.0, GrowthPercent(0, 0))
	assert.Equal(t, 0.0, GrowthPercent(100, 150)) // negative invested principal
}
