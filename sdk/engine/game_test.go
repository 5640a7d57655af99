package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGameStateDrawsUniformInitialStrategy(t *testing.T) {
	g, err := NewGraph(50, nil)
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)

	ones := 0
	for _, s := range gs.Strategy() {
		assert.Contains(t, []int{0, 1}, s)
		ones += s
	}
	assert.Greater(t, ones, 0)
	assert.Less(t, ones, 50)
}

func TestCoverReturnsOnlySecuredVertices(t *testing.T) {
	g, err := NewGraph(4, [][2]int{{0, 1}, {1, 2}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	gs.strategy = []int{0, 1, 0, 1}
	assert.Equal(t, []int{1, 3}, gs.Cover())
}

func TestInitRegretMatchingStartsAtUniformProbabilities(t *testing.T) {
	g, err := NewGraph(3, [][2]int{{0, 1}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	gs.InitRegretMatching()

	for i := 0; i < 2*g.N(); i++ {
		assert.Equal(t, 0.5, gs.regret.prob[i])
		assert.Equal(t, 0.0, gs.regret.regretSum[i])
	}
}

func TestInitFictitiousPlayWarmStartsCountsWithinRange(t *testing.T) {
	g, err := NewGraph(3, [][2]int{{0, 1}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	gs.InitFictitiousPlay()

	assert.Equal(t, 100, gs.fp.turn)
	for i := 0; i < g.N(); i++ {
		assert.GreaterOrEqual(t, gs.fp.count[i], 90)
		assert.LessOrEqual(t, gs.fp.count[i], 100)
		assert.InDelta(t, float64(gs.fp.count[i])/100.0, gs.fp.belief[i], 1e-12)
	}
}

func TestResetFictitiousPlayPanicsWithoutFPState(t *testing.T) {
	g, err := NewGraph(2, nil)
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	assert.Panics(t, func() { gs.ResetFictitiousPlay() })
}
