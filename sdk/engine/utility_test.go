package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUtilitySecuringCostsFlatFee(t *testing.T) {
	g, err := NewGraph(2, [][2]int{{0, 1}})
	assert.NoError(t, err)
	strategy := []int{0, 0}
	assert.Equal(t, -CostSecurity, Utility(g, strategy, 0, 1))
}

func TestUtilityUnsecuredPenalisesPerExposedNeighbour(t *testing.T) {
	g, err := NewGraph(3, [][2]int{{0, 1}, {0, 2}})
	assert.NoError(t, err)
	strategy := []int{0, 0, 0}
	assert.Equal(t, -2*PenaltyUnsecured, Utility(g, strategy, 0, 0))
}

func TestUtilityUnsecuredIgnoresSecuredNeighbours(t *testing.T) {
	g, err := NewGraph(3, [][2]int{{0, 1}, {0, 2}})
	assert.NoError(t, err)
	strategy := []int{0, 1, 0}
	assert.Equal(t, -PenaltyUnsecured, Utility(g, strategy, 0, 0))
}

func TestUtilityIsolatedVertexNeverPenalised(t *testing.T) {
	g, err := NewGraph(1, nil)
	assert.NoError(t, err)
	strategy := []int{0}
	assert.Equal(t, 0.0, Utility(g, strategy, 0, 0))
}
