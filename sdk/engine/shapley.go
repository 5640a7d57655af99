package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"math/rand"
)

// CharacteristicVersion selects which of the three characteristic functions
// of §4.7 the Monte-Carlo sampler evaluates.
type CharacteristicVersion int

const (
	CharacteristicV1 CharacteristicVersion = 1
	CharacteristicV2 CharacteristicVersion = 2
	CharacteristicV3 CharacteristicVersion = 3
)

func (v CharacteristicVersion) valid() bool {
	return v == CharacteristicV1 || v == CharacteristicV2 || v == CharacteristicV3
}

// coalition is a fixed-size membership set used while evaluating a
// characteristic function. Members are added one at a time as the
// permutation prefix grows; the covered-edge count is recomputed from
// scratch on each evaluation.
type coalition struct {
	g       *Graph
	member  []bool
	edgeIdx [][2]int
}

func newCoalition(g *Graph) *coalition {
	return &coalition{
		g:       g,
		member:  make([]bool, g.N()),
		edgeIdx: g.Edges(),
	}
}

func (c *coalition) reset() {
	for i := range c.member {
		c.member[i] = false
	}
}

func (c *coalition) add(p int) {
	c.member[p] = true
}

func (c *coalition) size() int {
	n := 0
	for _, m := range c.member {
		if m {
			n++
		}
	}
	return n
}

// coveredEdges counts distinct edges with at least one endpoint in the set.
// O(m); acceptable because it is only called once per permutation prefix
// position during Shapley sampling, which already visits every player.
func (c *coalition) coveredEdges() int {
	count := 0
	for _, e := range c.edgeIdx {
		if c.member[e[0]] || c.member[e[1]] {
			count++
		}
	}
	return count
}

func isValidCoverSet(g *Graph, member []bool) bool {
	for u := 0; u < g.N(); u++ {
		if member[u] {
			continue
		}
		for _, v := range g.Neighbours(u) {
			if u >= v {
				continue
			}
			if !member[v] {
				return false
			}
		}
	}
	return true
}

func isMinimalSet(g *Graph, member []bool) bool {
	hasPrivate := make([]bool, g.N())
	for u := 0; u < g.N(); u++ {
		for _, v := range g.Neighbours(u) {
			if u >= v {
				continue
			}
			su, sv := member[u], member[v]
			if su && !sv {
				hasPrivate[u] = true
			} else if !su && sv {
				hasPrivate[v] = true
			}
		}
	}
	for i, in := range member {
		if in && !hasPrivate[i] {
			return false
		}
	}
	return true
}

// characteristicValue evaluates one of the three functions of §4.7 on the
// coalition currently held by c.
func characteristicValue(c *coalition, version CharacteristicVersion) float64 {
	covered := c.coveredEdges()
	m := len(c.edgeIdx)
	valid := isValidCoverSet(c.g, c.member)
	minimal := valid && isMinimalSet(c.g, c.member)

	switch version {
	case CharacteristicV1:
		v := 0.0
		if m > 0 {
			v = 100 * float64(covered) / float64(m)
		}
		if valid && !minimal {
			v -= 10
		}
		return v
	case CharacteristicV2:
		v := float64(covered)
		if valid {
			v += 100
		}
		if minimal {
			v += 50
		}
		return v
	case CharacteristicV3:
		v := float64(covered) - 0.5*float64(c.size())
		if valid {
			v += 50
		}
		if minimal {
			v += 30
		}
		return v
	default:
		return 0
	}
}

// ApproximateShapley runs the Monte-Carlo permutation sampler of §4.7,
// splitting the requested iteration count across up to runtime.NumCPU()
// (capped at 8) independent workers, each with its own seeded RNG — the
// only place parallelism is permitted in this engine, since per-player
// accumulators are combined after a fork-join barrier rather than updated
// concurrently. Returns the per-player average marginal contribution.
func ApproximateShapley(ctx context.Context, g *Graph, iterations int, version CharacteristicVersion, seed int64) ([]float64, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("engine: shapley iterations must be > 0, got %d", iterations)
	}
	if !version.valid() {
		return nil, fmt.Errorf("engine: unknown characteristic function version %d", version)
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers > iterations {
		workers = iterations
	}
	if workers < 1 {
		workers = 1
	}

	base := iterations / workers
	remainder := iterations % workers

	n := g.N()
	partials := make([][]float64, workers)

	group, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		count := base
		if w < remainder {
			count++
		}
		group.Go(func() error {
			if count == 0 {
				partials[w] = make([]float64, n)
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rng := rand.New(rand.NewSource(seed + int64(w)*2654435761))
			partials[w] = sampleShapleyWorker(g, count, version, rng)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for _, partial := range partials {
		for i, v := range partial {
			values[i] += v
		}
	}
	for i := range values {
		values[i] /= float64(iterations)
	}
	return values, nil
}

func sampleShapleyWorker(g *Graph, iterations int, version CharacteristicVersion, rng *rand.Rand) []float64 {
	n := g.N()
	sums := make([]float64, n)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	c := newCoalition(g)

	for iter := 0; iter < iterations; iter++ {
		rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		c.reset()
		prev := 0.0
		for _, p := range perm {
			c.add(p)
			curr := characteristicValue(c, version)
			sums[p] += curr - prev
			prev = curr
		}
	}
	return sums
}

// BuildCoverFromShapley synthesises a cover from per-player Shapley values:
// start from the full set (trivially a cover), reverse-delete in ascending
// value order keeping only removals that leave every edge covered, then
// repeatedly strip any in-set vertex with no private edge until stable.
func BuildCoverFromShapley(g *Graph, values []float64) []int {
	n := g.N()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	inSet := make([]bool, n)
	for i := range inSet {
		inSet[i] = true
	}

	for _, p := range order {
		stillCovered := true
		for _, neighbour := range g.Neighbours(p) {
			if !inSet[neighbour] {
				stillCovered = false
				break
			}
		}
		if stillCovered {
			inSet[p] = false
		}
	}

	for {
		hasPrivate := make([]bool, n)
		for u := 0; u < n; u++ {
			for _, v := range g.Neighbours(u) {
				if u >= v {
					continue
				}
				su, sv := inSet[u], inSet[v]
				if su && !sv {
					hasPrivate[u] = true
				} else if !su && sv {
					hasPrivate[v] = true
				}
			}
		}
		removed := false
		for i := 0; i < n; i++ {
			if inSet[i] && !hasPrivate[i] {
				inSet[i] = false
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}

	cover := make([]int, 0)
	for i, in := range inSet {
		if in {
			cover = append(cover, i)
		}
	}
	return cover
}

// StrategyFromCover expands a cover vertex list into a dense 0/1 strategy
// vector of length n.
func StrategyFromCover(n int, cover []int) []int {
	s := make([]int, n)
	for _, i := range cover {
		s[i] = 1
	}
	return s
}
