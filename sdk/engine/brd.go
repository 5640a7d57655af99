package engine

import "github.com/tkellan/vcgame/internal/eventlog"

// StepBRD runs one best-response sweep (§4.2) over players in index order.
// Ties keep the current strategy. Updates are Gauss-Seidel: later players in
// the same sweep see earlier players' changes within it. Returns true if
// any player's strategy changed.
func (gs *GameState) StepBRD(sink eventlog.Sink, iteration int) bool {
	n := gs.graph.N()
	changed := false
	var updates []eventlog.Update

	for i := 0; i < n; i++ {
		current := gs.strategy[i]
		u0 := Utility(gs.graph, gs.strategy, i, 0)
		u1 := Utility(gs.graph, gs.strategy, i, 1)

		best := current
		if u1 > u0 {
			best = 1
		} else if u0 > u1 {
			best = 0
		}

		if best != current {
			gs.strategy[i] = best
			changed = true
			u := u0
			if best == 1 {
				u = u1
			}
			updates = append(updates, eventlog.Update{ID: i, Old: current, New: best, U: u})
		}
	}

	sink.DriverStep(iteration, BRD.String(), updates)
	return changed
}
