package engine

import "github.com/tkellan/vcgame/internal/eventlog"

// StepRegretMatching runs one regret-matching iteration (§4.3). Every player
// samples a strategy from the *previous* iteration's probabilities first;
// only once every player has played does the sweep compute regrets against
// the resulting joint strategy and renormalise. Interleaving sample and
// regret per-player (as one early variant of this dynamic did) biases
// u_real by strategies that haven't been sampled yet — never do that.
//
// Returns true iff any player had a positive instantaneous regret to
// deviate (i.e. the profile is not yet an ε-Nash equilibrium).
func (gs *GameState) StepRegretMatching(sink eventlog.Sink, iteration int) bool {
	if gs.aux != auxRegretMatching {
		panic("engine: StepRegretMatching called without regret-matching state")
	}
	n := gs.graph.N()
	r := gs.regret
	var updates []eventlog.Update

	for i := 0; i < n; i++ {
		old := gs.strategy[i]
		prob1 := r.prob[2*i+1]
		next := 0
		if gs.rng.Float64() < prob1 {
			next = 1
		}
		gs.strategy[i] = next
		if next != old {
			updates = append(updates, eventlog.Update{ID: i, Old: old, New: next, U: 0})
		}
	}

	isNash := true
	for i := 0; i < n; i++ {
		u0 := Utility(gs.graph, gs.strategy, i, 0)
		u1 := Utility(gs.graph, gs.strategy, i, 1)
		uReal := u0
		if gs.strategy[i] == 1 {
			uReal = u1
		}
		r0 := u0 - uReal
		r1 := u1 - uReal
		if r0 > epsilon || r1 > epsilon {
			isNash = false
		}

		r.regretSum[2*i] += r0
		r.regretSum[2*i+1] += r1

		p0 := positivePart(r.regretSum[2*i])
		p1 := positivePart(r.regretSum[2*i+1])
		sum := p0 + p1
		if sum > epsilon {
			r.prob[2*i] = p0 / sum
			r.prob[2*i+1] = p1 / sum
		} else {
			r.prob[2*i] = 0.5
			r.prob[2*i+1] = 0.5
		}
	}

	sink.DriverStep(iteration, RM.String(), updates)
	return !isNash
}

func positivePart(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}
