// Package graphgen builds random graphs for the dynamics engine to run over:
// a fixed-degree regular graph, an Erdos-Renyi graph, and a preferential
// attachment graph, all returned as engine.Graph values already satisfying
// the CSR invariants.
package graphgen

import (
	"fmt"
	"math/rand"

	"github.com/tkellan/vcgame/sdk/engine"
)

const maxRegularAttempts = 100

// RandomRegular builds a degree-regular graph on n vertices via stub
// matching: n*degree half-edges are shuffled and paired consecutively,
// retrying the whole shuffle-and-pair attempt whenever a self-loop or
// duplicate edge results. Rejects degree >= n or n*degree odd.
func RandomRegular(n, degree int, rng *rand.Rand) (*engine.Graph, error) {
	if degree < 0 {
		return nil, fmt.Errorf("graphgen: degree must be >= 0, got %d", degree)
	}
	if degree >= n {
		return nil, fmt.Errorf("graphgen: degree (%d) must be < n (%d)", degree, n)
	}
	if (n*degree)%2 != 0 {
		return nil, fmt.Errorf("graphgen: n*degree must be even, got n=%d degree=%d", n, degree)
	}
	if degree == 0 {
		return engine.NewGraph(n, nil)
	}

	stubs := make([]int, n*degree)
	for v := 0; v < n; v++ {
		for k := 0; k < degree; k++ {
			stubs[v*degree+k] = v
		}
	}

	for attempt := 0; attempt < maxRegularAttempts; attempt++ {
		rng.Shuffle(len(stubs), func(i, j int) { stubs[i], stubs[j] = stubs[j], stubs[i] })

		seen := make(map[[2]int]bool, len(stubs)/2)
		edges := make([][2]int, 0, len(stubs)/2)
		ok := true
		for i := 0; i < len(stubs); i += 2 {
			u, v := stubs[i], stubs[i+1]
			if u == v {
				ok = false
				break
			}
			key := [2]int{u, v}
			if u > v {
				key = [2]int{v, u}
			}
			if seen[key] {
				ok = false
				break
			}
			seen[key] = true
			edges = append(edges, [2]int{u, v})
		}
		if !ok {
			continue
		}
		return engine.NewGraph(n, edges)
	}
	return nil, fmt.Errorf("graphgen: failed to build a %d-regular graph on %d vertices after %d attempts", degree, n, maxRegularAttempts)
}

// ErdosRenyi includes each unordered pair (u,v) independently with
// probability p. Rejects p outside [0,1].
func ErdosRenyi(n int, p float64, rng *rand.Rand) (*engine.Graph, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("graphgen: p must be in [0,1], got %v", p)
	}
	var edges [][2]int
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < p {
				edges = append(edges, [2]int{u, v})
			}
		}
	}
	return engine.NewGraph(n, edges)
}

// BarabasiAlbert builds a preferential-attachment graph: a complete graph on
// m+1 vertices seeds the process, then each later vertex attaches m edges to
// existing vertices chosen with probability proportional to current degree.
// Rejects m < 1 or m >= n.
func BarabasiAlbert(n, m int, rng *rand.Rand) (*engine.Graph, error) {
	if m < 1 {
		return nil, fmt.Errorf("graphgen: m must be >= 1, got %d", m)
	}
	if m >= n {
		return nil, fmt.Errorf("graphgen: m (%d) must be < n (%d)", m, n)
	}

	var edges [][2]int
	// repeatedID is the preferential-attachment urn: every endpoint of every
	// edge added so far appears once per incident edge, so sampling
	// uniformly from it samples a vertex proportional to its degree.
	var repeatedID []int

	for u := 0; u <= m; u++ {
		for v := 0; v < u; v++ {
			edges = append(edges, [2]int{v, u})
			repeatedID = append(repeatedID, u, v)
		}
	}

	for v := m + 1; v < n; v++ {
		targets := make(map[int]bool, m)
		for len(targets) < m {
			candidate := repeatedID[rng.Intn(len(repeatedID))]
			if candidate == v {
				continue
			}
			targets[candidate] = true
		}
		for target := range targets {
			edges = append(edges, [2]int{target, v})
			repeatedID = append(repeatedID, target, v)
		}
	}

	return engine.NewGraph(n, edges)
}
