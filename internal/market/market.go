// Package market runs the post-processing matching stage of §4.14: vertices
// in the converged cover shop for a resource among a set of synthetic
// vendors, matched by a min-cost max-flow solver over a successive shortest
// augmenting path (SPFA) formulation, since edge costs can be negative.
package market

import (
	"math"
	"math/rand"

	"github.com/tkellan/vcgame/internal/eventlog"
)

const infCost = 1e9

// Mode selects the vendor-capacity regime.
type Mode string

const (
	Infinite Mode = "infinite"
	Limited  Mode = "limited"
)

// Vendor is a synthetic resource supplier.
type Vendor struct {
	Price    int
	Quality  int
	Capacity int
}

// Match describes one buyer-vendor pairing the solver settled on.
type Match struct {
	Buyer  int // index into the cover slice passed to Run
	Vendor int
}

// Result is the outcome of one market run.
type Result struct {
	Buyers  []int // budgets, one per cover vertex
	Vendors []Vendor
	Matches []Match
	Welfare float64
}

// Run builds the flow network for the given cover (buyers), draws random
// budgets and vendors, and solves for maximum social welfare. rng supplies
// all randomness.
func Run(cover []int, mode Mode, rng *rand.Rand, sink eventlog.Sink) Result {
	if sink == nil {
		sink = eventlog.Nop{}
	}
	numBuyers := len(cover)
	budgets := make([]int, numBuyers)
	for i := range budgets {
		budgets[i] = rng.Intn(100) + 1
	}

	numVendors := numBuyers/2 + 1
	vendors := make([]Vendor, numVendors)
	for j := range vendors {
		vendors[j].Price = rng.Intn(100) + 1
		vendors[j].Quality = rng.Intn(10) + 1
		if mode == Limited {
			vendors[j].Capacity = rng.Intn(5) + 1
		} else {
			vendors[j].Capacity = numBuyers
		}
	}

	if numBuyers == 0 {
		res := Result{Buyers: budgets, Vendors: vendors}
		sink.Matching(eventlog.MatchRecord{Mode: string(mode), Matched: 0, Buyers: 0, Welfare: 0})
		return res
	}

	// Node layout: 0 = source, 1..B buyers, B+1..B+V vendors, B+V+1 = sink.
	s := 0
	t := numBuyers + numVendors + 1
	fn := newFlowNetwork(t + 1)

	for i := 0; i < numBuyers; i++ {
		fn.addEdge(s, i+1, 1, 0)
	}
	for i := 0; i < numBuyers; i++ {
		for j := 0; j < numVendors; j++ {
			if budgets[i] >= vendors[j].Price {
				utility := float64(budgets[i]-vendors[j].Price) + float64(vendors[j].Quality)*10
				fn.addEdge(i+1, numBuyers+j+1, 1, -utility)
			}
		}
	}
	for j := 0; j < numVendors; j++ {
		fn.addEdge(numBuyers+j+1, t, vendors[j].Capacity, 0)
	}

	minCost, totalFlow := fn.minCostMaxFlow(s, t)
	welfare := -minCost

	var matches []Match
	for i := 0; i < numBuyers; i++ {
		u := i + 1
		for _, e := range fn.adj[u] {
			if e.to > numBuyers && e.to <= numBuyers+numVendors && e.cap == 0 {
				matches = append(matches, Match{Buyer: i, Vendor: e.to - numBuyers - 1})
			}
		}
	}

	sink.Matching(eventlog.MatchRecord{
		Mode:    string(mode),
		Matched: totalFlow,
		Buyers:  numBuyers,
		Welfare: welfare,
	})

	return Result{Buyers: budgets, Vendors: vendors, Matches: matches, Welfare: welfare}
}

// VerifyConstraints re-checks, independently of the solver, that every
// reported match respects its buyer's budget and that no vendor oversold
// its capacity.
func VerifyConstraints(r Result) bool {
	sales := make([]int, len(r.Vendors))
	for _, m := range r.Matches {
		if r.Buyers[m.Buyer] < r.Vendors[m.Vendor].Price {
			return false
		}
		sales[m.Vendor]++
	}
	for j, v := range r.Vendors {
		if sales[j] > v.Capacity {
			return false
		}
	}
	return true
}

// --- flow network / SPFA min-cost max-flow, grounded on the reference
// tool's min_cost_flow.c ---

type flowEdge struct {
	to   int
	rev  int
	cap  int
	cost float64
}

type flowNetwork struct {
	adj [][]flowEdge
}

func newFlowNetwork(n int) *flowNetwork {
	return &flowNetwork{adj: make([][]flowEdge, n)}
}

func (fn *flowNetwork) addEdge(u, v, cap int, cost float64) {
	fn.adj[u] = append(fn.adj[u], flowEdge{to: v, rev: len(fn.adj[v]), cap: cap, cost: cost})
	fn.adj[v] = append(fn.adj[v], flowEdge{to: u, rev: len(fn.adj[u]) - 1, cap: 0, cost: -cost})
}

// spfa finds a cheapest path from s to t with positive residual capacity
// using the Bellman-Ford-style Shortest Path Faster Algorithm, required
// because edge costs here can be negative (utility maximisation).
func (fn *flowNetwork) spfa(s, t int) (dist []float64, parentNode, parentEdge []int, reachable bool) {
	n := len(fn.adj)
	dist = make([]float64, n)
	parentNode = make([]int, n)
	parentEdge = make([]int, n)
	inQueue := make([]bool, n)
	for i := range dist {
		dist[i] = infCost
		parentNode[i] = -1
		parentEdge[i] = -1
	}
	dist[s] = 0

	queue := []int{s}
	inQueue[s] = true
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		inQueue[u] = false

		for i, e := range fn.adj[u] {
			if e.cap > 0 && dist[e.to] > dist[u]+e.cost+1e-9 {
				dist[e.to] = dist[u] + e.cost
				parentNode[e.to] = u
				parentEdge[e.to] = i
				if !inQueue[e.to] {
					queue = append(queue, e.to)
					inQueue[e.to] = true
				}
			}
		}
	}

	return dist, parentNode, parentEdge, dist[t] < infCost/2
}

func (fn *flowNetwork) minCostMaxFlow(s, t int) (cost float64, flow int) {
	for {
		dist, parentNode, parentEdge, ok := fn.spfa(s, t)
		if !ok {
			break
		}
		_ = dist

		push := math.MaxInt32
		for cur := t; cur != s; {
			prev := parentNode[cur]
			idx := parentEdge[cur]
			if fn.adj[prev][idx].cap < push {
				push = fn.adj[prev][idx].cap
			}
			cur = prev
		}

		for cur := t; cur != s; {
			prev := parentNode[cur]
			idx := parentEdge[cur]
			revIdx := fn.adj[prev][idx].rev
			fn.adj[prev][idx].cap -= push
			fn.adj[cur][revIdx].cap += push
			cost += float64(push) * fn.adj[prev][idx].cost
			cur = prev
		}
		flow += push
	}
	return cost, flow
}
