package engine

import (
	"math/rand"

	"github.com/tkellan/vcgame/internal/eventlog"
)

// StepFictitiousPlayAsync runs one asynchronous (Gauss-Seidel) fictitious-play
// sweep (§4.5): the same belief/utility equations as the synchronous variant,
// but players are visited in a freshly shuffled order each call, and a
// player's belief is folded into the running average immediately after its
// strategy is decided — so later players within the same sweep already see
// it. A fresh permutation every sweep is required; reusing one collapses the
// symmetry-breaking this variant exists for.
func (gs *GameState) StepFictitiousPlayAsync(sink eventlog.Sink, iteration int) bool {
	if gs.aux != auxFictitiousPlay {
		panic("engine: StepFictitiousPlayAsync called without fictitious-play state")
	}
	fp := gs.fp
	shuffle(gs.fpOrder, gs.rng)

	changed := false
	var updates []eventlog.Update
	nextTurn := fp.turn + 1

	for _, i := range gs.fpOrder {
		eu1 := -CostSecurity
		eu0 := 0.0
		for _, neighbour := range gs.graph.Neighbours(i) {
			eu0 -= PenaltyUnsecured * (1 - fp.belief[neighbour])
		}

		old := gs.strategy[i]
		next := 0
		if eu1 > eu0 {
			next = 1
		}
		gs.strategy[i] = next
		if next != old {
			changed = true
			updates = append(updates, eventlog.Update{ID: i, Old: old, New: next, U: 0})
		}
		if next == 1 {
			fp.count[i]++
		}
		fp.belief[i] = float64(fp.count[i]) / float64(nextTurn)
	}

	fp.turn = nextTurn
	sink.DriverStep(iteration, FPAsync.String(), updates)
	return changed
}

func shuffle(order []int, rng *rand.Rand) {
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}
