package engine

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tkellan/vcgame/internal/eventlog"
)

func TestCheckpointRoundTripsRegretMatchingState(t *testing.T) {
	g, err := NewGraph(5, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(5)), 5)
	gs.InitRegretMatching()
	for it := 0; it < 10; it++ {
		gs.StepRegretMatching(eventlog.Nop{}, it)
	}

	path := filepath.Join(t.TempDir(), "rm.json")
	assert.NoError(t, SaveCheckpoint(path, gs, RM, 10, 3, 0))

	restored, algorithm, iteration, streak, lastRestart, err := LoadCheckpoint(path, g)
	assert.NoError(t, err)
	assert.Equal(t, RM, algorithm)
	assert.Equal(t, 10, iteration)
	assert.Equal(t, 3, streak)
	assert.Equal(t, 0, lastRestart)
	assert.Equal(t, gs.Strategy(), restored.Strategy())
	assert.Equal(t, gs.regret.regretSum, restored.regret.regretSum)
	assert.Equal(t, gs.regret.prob, restored.regret.prob)
}

func TestCheckpointRoundTripsFictitiousPlayState(t *testing.T) {
	g, err := NewGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(9)), 9)
	gs.InitFictitiousPlay()
	for it := 0; it < 5; it++ {
		gs.StepFictitiousPlay(eventlog.Nop{}, it)
	}

	path := filepath.Join(t.TempDir(), "fp.json")
	assert.NoError(t, SaveCheckpoint(path, gs, FP, 5, 0, 0))

	restored, algorithm, _, _, _, err := LoadCheckpoint(path, g)
	assert.NoError(t, err)
	assert.Equal(t, FP, algorithm)
	assert.Equal(t, gs.fp.count, restored.fp.count)
	assert.Equal(t, gs.fp.belief, restored.fp.belief)
	assert.Equal(t, gs.fp.turn, restored.fp.turn)
}

func TestLoadCheckpointFeedsRunResumeOptionsDirectly(t *testing.T) {
	g, err := NewGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(2)), 2)
	gs.InitRegretMatching()

	path := filepath.Join(t.TempDir(), "resume.json")
	assert.NoError(t, SaveCheckpoint(path, gs, RM, 7, StreakThreshold-1, 0))

	restored, algorithm, iteration, streak, lastRestart, err := LoadCheckpoint(path, g)
	assert.NoError(t, err)

	finalIteration, err := Run(restored, algorithm, 1000, RunOptions{
		StartIteration:   iteration,
		StartStreak:      streak,
		StartLastRestart: lastRestart,
	})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, finalIteration, iteration, "a resumed run never reports convergence earlier than the iteration it resumed from")
}

func TestLoadCheckpointRejectsGraphSizeMismatch(t *testing.T) {
	g, err := NewGraph(3, [][2]int{{0, 1}})
	assert.NoError(t, err)
	gs := NewGameState(g, rand.New(rand.NewSource(1)), 1)

	path := filepath.Join(t.TempDir(), "mismatch.json")
	assert.NoError(t, SaveCheckpoint(path, gs, BRD, 0, 0, 0))

	other, err := NewGraph(4, [][2]int{{0, 1}})
	assert.NoError(t, err)
	_, _, _, _, _, err = LoadCheckpoint(path, other)
	assert.Error(t, err)
}
