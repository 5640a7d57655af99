package auction

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tkellan/vcgame/internal/eventlog"
	"github.com/tkellan/vcgame/sdk/engine"
)

func TestRunOnTooSmallGraphIsSkipped(t *testing.T) {
	g, err := engine.NewGraph(1, nil)
	assert.NoError(t, err)
	_, ok := Run(g, []int{0}, rand.New(rand.NewSource(1)), eventlog.Nop{})
	assert.False(t, ok)
}

func TestRunWithNoUncoveredPairIsSkipped(t *testing.T) {
	g, err := engine.NewGraph(3, [][2]int{{0, 1}, {1, 2}})
	assert.NoError(t, err)
	// Only one uncovered vertex: no source/target pair available.
	_, ok := Run(g, []int{1, 0, 1}, rand.New(rand.NewSource(1)), eventlog.Nop{})
	assert.False(t, ok)
}

func TestRunFindsAPathBetweenUncoveredVertices(t *testing.T) {
	g, err := engine.NewGraph(5, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}})
	assert.NoError(t, err)
	strategy := []int{0, 1, 0, 1, 0}

	result, ok := Run(g, strategy, rand.New(rand.NewSource(2)), eventlog.Nop{})
	assert.True(t, ok)
	assert.NotEmpty(t, result.Path)
	assert.Equal(t, result.Source, result.Path[0])
	assert.Equal(t, result.Target, result.Path[len(result.Path)-1])
}

func TestRunPaymentsAreNonNegativeOrBridge(t *testing.T) {
	g, err := engine.NewGraph(6, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}})
	assert.NoError(t, err)
	strategy := []int{0, 0, 0, 0, 0, 0}

	result, ok := Run(g, strategy, rand.New(rand.NewSource(4)), eventlog.Nop{})
	assert.True(t, ok)
	for _, p := range result.Payments {
		assert.True(t, p.Payment == BridgePayment || p.Payment >= 0)
	}
}

func TestVerifyTruthfulnessOnHonestWinnerReportsNoProfitableLie(t *testing.T) {
	// A path with no alternative route: the only intermediate node is a
	// pure bridge, so lying can never help (monopoly case floors utility).
	g, err := engine.NewGraph(3, [][2]int{{0, 1}, {1, 2}})
	assert.NoError(t, err)
	strategy := []int{0, 0, 0}

	result, ok := Run(g, strategy, rand.New(rand.NewSource(9)), eventlog.Nop{})
	assert.True(t, ok)

	trials := VerifyTruthfulness(g, strategy, result)
	for _, trial := range trials {
		assert.False(t, trial.Profitable, "fake bid %d should not be profitable", trial.FakeBid)
	}
}

func TestVerifyTruthfulnessWithNoNonBridgePaymentsReturnsNil(t *testing.T) {
	result := Result{Payments: []Payment{{Node: 0, Payment: BridgePayment}}}
	g, err := engine.NewGraph(2, [][2]int{{0, 1}})
	assert.NoError(t, err)
	trials := VerifyTruthfulness(g, []int{0, 0}, result)
	assert.Nil(t, trials)
}
