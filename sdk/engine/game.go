package engine

import "math/rand"

// Constants fixing the network-security game's payoff structure. Changing
// either shifts the indifference threshold COST_SECURITY/PENALTY_UNSECURED.
const (
	CostSecurity     = 1.0
	PenaltyUnsecured = 10.0
)

// Convergence-detection constants, binding across every FP-based run.
const (
	StreakThreshold = 500
	RestartInterval = 1000
	epsilon         = 1e-9
)

// Algorithm identifies which iterator the driver dispatches to.
type Algorithm int

const (
	BRD Algorithm = iota + 1
	RM
	FP
	Shapley
	FPAsync
)

func (a Algorithm) String() string {
	switch a {
	case BRD:
		return "BRD"
	case RM:
		return "RM"
	case FP:
		return "FP"
	case Shapley:
		return "SHAPLEY"
	case FPAsync:
		return "FP_ASYNC"
	default:
		return "UNKNOWN"
	}
}

// auxKind tags which, if any, auxiliary state a GameState currently owns.
// The driver dispatches purely on this tag; a mismatched tag/algorithm pair
// is a programming error the zero-value panics surface immediately rather
// than silently computing garbage.
type auxKind int

const (
	auxNone auxKind = iota
	auxRegretMatching
	auxFictitiousPlay
)

// regretAux holds the dense regret-matching state of §3: two length-2n
// sequences indexed regret_sum[2i+a] / prob[2i+a].
type regretAux struct {
	regretSum []float64
	prob      []float64
}

// fpAux holds the fictitious-play belief state of §3.
type fpAux struct {
	count  []int
	belief []float64
	turn   int
}

// GameState is the mutable per-run state: the graph (read-only, aliased),
// the strategy vector, and at most one auxiliary state. A GameState is
// exclusively owned by whichever driver loop is currently running it.
type GameState struct {
	graph    *Graph
	strategy []int
	aux      auxKind
	regret   *regretAux
	fp       *fpAux
	rng      *rand.Rand
	rngSeed  int64
	fpOrder  []int
}

// NewGameState builds a fresh game over g with an independently-sampled
// uniform initial strategy, using rng for all randomness (never a
// package-global generator, per the injectable-PRNG design note). seed
// records the provenance of rng so a later checkpoint can be reseeded on
// resume; it has no bearing on the run itself.
func NewGameState(g *Graph, rng *rand.Rand, seed int64) *GameState {
	n := g.N()
	s := make([]int, n)
	for i := range s {
		s[i] = rng.Intn(2)
	}
	return &GameState{graph: g, strategy: s, rng: rng, rngSeed: seed}
}

// Graph returns the underlying read-only graph.
func (gs *GameState) Graph() *Graph { return gs.graph }

// Strategy returns the current strategy vector. The returned slice aliases
// internal storage; callers must not mutate it.
func (gs *GameState) Strategy() []int { return gs.strategy }

// Cover returns the set of vertices currently playing 1.
func (gs *GameState) Cover() []int {
	out := make([]int, 0)
	for i, v := range gs.strategy {
		if v == 1 {
			out = append(out, i)
		}
	}
	return out
}

// InitRegretMatching allocates C5's auxiliary state: uniform 0.5
// probabilities, zero regrets.
func (gs *GameState) InitRegretMatching() {
	n := gs.graph.N()
	prob := make([]float64, 2*n)
	for i := range prob {
		prob[i] = 0.5
	}
	gs.regret = &regretAux{regretSum: make([]float64, 2*n), prob: prob}
	gs.aux = auxRegretMatching
}

// InitFictitiousPlay allocates C6/C7's shared auxiliary state and performs
// the warm-start reset of §4.6.
func (gs *GameState) InitFictitiousPlay() {
	n := gs.graph.N()
	gs.fp = &fpAux{count: make([]int, n), belief: make([]float64, n)}
	gs.fpOrder = make([]int, n)
	for i := range gs.fpOrder {
		gs.fpOrder[i] = i
	}
	gs.aux = auxFictitiousPlay
	gs.ResetFictitiousPlay()
}

// ResetFictitiousPlay re-draws the warm-start state of §3: turn=100,
// count[i] uniform in [90,100], belief[i]=count[i]/100, and a fresh random
// strategy for every player. Used both for the initial warm start and for
// the driver's periodic restart (§4.6) — it never touches the graph.
func (gs *GameState) ResetFictitiousPlay() {
	if gs.aux != auxFictitiousPlay {
		panic("engine: ResetFictitiousPlay called without fictitious-play state")
	}
	gs.fp.turn = 100
	for i := 0; i < gs.graph.N(); i++ {
		variance := gs.rng.Intn(11)
		gs.fp.count[i] = 90 + variance
		gs.fp.belief[i] = float64(gs.fp.count[i]) / float64(gs.fp.turn)
		gs.strategy[i] = gs.rng.Intn(2)
	}
}
