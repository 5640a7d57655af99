package engine

import "github.com/tkellan/vcgame/internal/eventlog"

// StepFictitiousPlay runs one synchronous fictitious-play iteration (§4.4).
// Beliefs are refreshed from counts, then a shadow strategy is computed for
// every player against those beliefs, then committed atomically — no player
// sees another's update within the same sweep. Ties break toward 0 (not
// paying unless the belief-weighted penalty strictly exceeds the cost).
func (gs *GameState) StepFictitiousPlay(sink eventlog.Sink, iteration int) bool {
	if gs.aux != auxFictitiousPlay {
		panic("engine: StepFictitiousPlay called without fictitious-play state")
	}
	n := gs.graph.N()
	fp := gs.fp

	for i := 0; i < n; i++ {
		fp.belief[i] = float64(fp.count[i]) / float64(fp.turn)
	}

	next := make([]int, n)
	for i := 0; i < n; i++ {
		eu1 := -CostSecurity
		eu0 := 0.0
		for _, neighbour := range gs.graph.Neighbours(i) {
			eu0 -= PenaltyUnsecured * (1 - fp.belief[neighbour])
		}
		if eu1 > eu0 {
			next[i] = 1
		} else {
			next[i] = 0
		}
	}

	changed := false
	var updates []eventlog.Update
	for i := 0; i < n; i++ {
		old := gs.strategy[i]
		gs.strategy[i] = next[i]
		if next[i] != old {
			changed = true
			updates = append(updates, eventlog.Update{ID: i, Old: old, New: next[i], U: 0})
		}
		if next[i] == 1 {
			fp.count[i]++
		}
	}
	fp.turn++

	sink.DriverStep(iteration, FP.String(), updates)
	return changed
}
