package syncclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_StableAcrossMapOrdering(t *testing.T) {
	a := EnvelopeV2{
		Version: 2,
		Platforms: Platforms{
			PlatformA: PlatformA{
				GoalTargets: map[string]float64{"g1": 10, "g2": 20},
				GoalFixed:   map[string]bool{"g1": false},
			},
		},
	}
	b := EnvelopeV2{
		Version: 2,
		Platforms: Platforms{
			PlatformA: PlatformA{
				GoalTargets: map[string]float64{"g2": 20, "g1": 10},
				GoalFixed:   map[string]bool{"g1": false},
			},
		},
	}

	hashA, err := ContentHash(a)
	require.NoError(t, err)
	hashB, err := ContentHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

func TestContentHash_DiffersOnContentChange(t *testing.T) {
	a := EnvelopeV2{Version: 2, Platforms: Platforms{PlatformA: PlatformA{GoalTargets: map[string]float64{"g1": 10}}}}
	b := EnvelopeV2{Version: 2, Platforms: Platforms{PlatformA: PlatformA{GoalTargets: map[string]float64{"g1": 11}}}}

	hashA, err := ContentHash(a)
	require.NoError(t, err)
	hashB, err := ContentHash(b)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}
