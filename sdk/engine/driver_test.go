package engine

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"

	"github.com/tkellan/vcgame/internal/eventlog"
)

func isolatedVertices(n int) *Graph {
	g, err := NewGraph(n, nil)
	if err != nil {
		panic(err)
	}
	return g
}

func TestRunBRDConvergesOnIsolatedVertices(t *testing.T) {
	g := isolatedVertices(100)
	gs := NewGameState(g, rand.New(rand.NewSource(7)), 7)

	iteration, err := Run(gs, BRD, 2000, RunOptions{})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, iteration, 0)
	for _, v := range gs.Strategy() {
		assert.Equal(t, 0, v, "isolated vertex has no neighbours to secure against")
	}
}

func TestRunRejectsUnknownAlgorithm(t *testing.T) {
	g := isolatedVertices(3)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)

	_, err := Run(gs, Algorithm(99), 10, RunOptions{})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestRunRejectsRMWithoutAuxState(t *testing.T) {
	g := isolatedVertices(3)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)

	_, err := Run(gs, RM, 10, RunOptions{})
	assert.Error(t, err)
}

func TestRunRejectsNegativeMaxIterations(t *testing.T) {
	g := isolatedVertices(3)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)

	_, err := Run(gs, BRD, -1, RunOptions{})
	assert.Error(t, err)
}

func TestRunReturnsMinusOneWhenBudgetExhausted(t *testing.T) {
	g, err := NewGraph(6, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	gs.InitFictitiousPlay()

	iteration, err := Run(gs, FP, 1, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, -1, iteration)
}

func TestRunDriverStepObservationIsPureObserver(t *testing.T) {
	g, err := NewGraph(10, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 0}})
	assert.NoError(t, err)

	run := func(sink eventlog.Sink) []int {
		gs := NewGameState(g, rand.New(rand.NewSource(11)), 11)
		Run(gs, BRD, 200, RunOptions{Sink: sink})
		return gs.Strategy()
	}

	withoutLog := run(nil)
	withLog := run(eventlog.NewWriter(io.Discard))
	assert.Equal(t, withoutLog, withLog)
}

func TestRunWritesNoCheckpointWithinFirstInterval(t *testing.T) {
	g, err := NewGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(3)), 3)
	gs.InitRegretMatching()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	mock := quartz.NewMock(t)

	_, err = Run(gs, RM, 5, RunOptions{
		Clock:           mock,
		CheckpointPath:  path,
		CheckpointEvery: time.Hour,
	})
	assert.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no checkpoint expected before the interval elapses on a mock clock that never advances")
}

func TestRunResumesIterationAndStreakFromOptions(t *testing.T) {
	g := isolatedVertices(3)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)
	gs.strategy = []int{0, 0, 0} // already the fixed point: no neighbours, securing never pays

	// One no-op BRD sweep should push the resumed streak over the
	// threshold and report convergence at the resumed iteration number,
	// not at 0 or 1 as a fresh run would.
	iteration, err := Run(gs, BRD, 100, RunOptions{StartIteration: 42, StartStreak: StreakThreshold - 1})
	assert.NoError(t, err)
	assert.Equal(t, 42, iteration)
}
