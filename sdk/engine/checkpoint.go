package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/tkellan/vcgame/internal/fileutil"
)

const checkpointFileVersion = 1

// checkpointSnapshot is the on-disk form of a mid-run GameState: enough to
// resume Run from the exact iteration/streak it was at, not merely to
// recover the final strategy. The RNG itself is not serialisable; resume
// reseeds it from the stored seed rather than replaying its call sequence,
// so a resumed run's future random draws diverge from what an uninterrupted
// run would have drawn — acceptable since none of the iterators are
// required to be bit-reproducible across a checkpoint/resume boundary.
type checkpointSnapshot struct {
	Version     int       `json:"version"`
	Algorithm   Algorithm `json:"algorithm"`
	N           int       `json:"n"`
	Iteration   int       `json:"iteration"`
	Streak      int       `json:"streak"`
	LastRestart int       `json:"last_restart"`
	Strategy    []int     `json:"strategy"`
	RNGSeed     int64     `json:"rng_seed"`
	RegretSum   []float64 `json:"regret_sum,omitempty"`
	Prob        []float64 `json:"prob,omitempty"`
	FPCount     []int     `json:"fp_count,omitempty"`
	FPBelief    []float64 `json:"fp_belief,omitempty"`
	FPTurn      int       `json:"fp_turn,omitempty"`
}

// SaveCheckpoint writes the current driver state to path, atomically: a
// reader never observes a partially-written checkpoint.
func SaveCheckpoint(path string, gs *GameState, algorithm Algorithm, iteration, streak, lastRestart int) error {
	snap := checkpointSnapshot{
		Version:     checkpointFileVersion,
		Algorithm:   algorithm,
		N:           gs.graph.N(),
		Iteration:   iteration,
		Streak:      streak,
		LastRestart: lastRestart,
		Strategy:    append([]int(nil), gs.strategy...),
		RNGSeed:     gs.rngSeed,
	}
	switch gs.aux {
	case auxRegretMatching:
		snap.RegretSum = append([]float64(nil), gs.regret.regretSum...)
		snap.Prob = append([]float64(nil), gs.regret.prob...)
	case auxFictitiousPlay:
		snap.FPCount = append([]int(nil), gs.fp.count...)
		snap.FPBelief = append([]float64(nil), gs.fp.belief...)
		snap.FPTurn = gs.fp.turn
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: encode checkpoint: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: persist checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a GameState and the driver bookkeeping
// (iteration, streak, lastRestart) that Run needs to resume exactly where
// the checkpoint was taken, given the graph the run was over.
func LoadCheckpoint(path string, g *Graph) (gs *GameState, algorithm Algorithm, iteration, streak, lastRestart int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}
	defer f.Close()

	var snap checkpointSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, 0, 0, 0, 0, fmt.Errorf("engine: decode checkpoint: %w", err)
	}
	if snap.Version != checkpointFileVersion {
		return nil, 0, 0, 0, 0, errors.New("engine: unsupported checkpoint version")
	}
	if snap.N != g.N() {
		return nil, 0, 0, 0, 0, fmt.Errorf("engine: checkpoint graph size %d does not match loaded graph size %d", snap.N, g.N())
	}

	state := &GameState{
		graph:    g,
		strategy: append([]int(nil), snap.Strategy...),
		rng:      rand.New(rand.NewSource(snap.RNGSeed)),
		rngSeed:  snap.RNGSeed,
	}

	switch snap.Algorithm {
	case RM:
		state.regret = &regretAux{regretSum: snap.RegretSum, prob: snap.Prob}
		state.aux = auxRegretMatching
	case FP, FPAsync:
		state.fp = &fpAux{count: snap.FPCount, belief: snap.FPBelief, turn: snap.FPTurn}
		state.fpOrder = make([]int, g.N())
		for i := range state.fpOrder {
			state.fpOrder[i] = i
		}
		state.aux = auxFictitiousPlay
	}

	return state, snap.Algorithm, snap.Iteration, snap.Streak, snap.LastRestart, nil
}
