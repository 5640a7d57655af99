// Package auction runs the VCG shortest-path mechanism of §4.15: vertices
// bid a private cost for being used as an intermediate hop, the winning
// path is the cheapest Dijkstra path under a penalty for routing through an
// unsecured vertex, and each intermediate node is charged its VCG payment.
package auction

import (
	"container/heap"
	"math"
	"math/rand"

	"github.com/tkellan/vcgame/internal/eventlog"
	"github.com/tkellan/vcgame/sdk/engine"
)

const (
	infDist      = 1e14
	penaltyCost  = 200.0
	excludeNone  = -1
)

// BridgePayment is the sentinel reported for a node whose removal
// disconnects source from target — the monopoly/bridge case of §4.15 — in
// place of a computed path-cost difference.
var BridgePayment = math.Inf(1)

// Payment is one intermediate node's VCG charge.
type Payment struct {
	Node    int
	Bid     int
	Payment float64 // BridgePayment for the monopoly/bridge case
}

// Result is the outcome of one auction run.
type Result struct {
	Source   int
	Target   int
	Bids     []int
	Path     []int
	Cost     float64
	Payments []Payment
}

// Trial is one perturbation VerifyTruthfulness tried against the winning
// node's bid.
type Trial struct {
	FakeBid     int
	StillWins   bool
	NewUtility  float64
	Profitable  bool
}

func nodeWeight(bid int, secure bool) float64 {
	w := float64(bid)
	if !secure {
		w += penaltyCost
	}
	return w
}

type heapItem struct {
	id   int
	dist float64
}

type priorityQueue []heapItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(heapItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath runs Dijkstra from s to t, treating excludeNode as removed
// from the graph (pass excludeNone to include every node). Cost accrues on
// entering a node: the per-node weight is bid plus a fixed penalty when the
// node is outside the security cover.
func shortestPath(g *engine.Graph, s, t int, bids []int, secure []bool, excludeNode int) (path []int, cost float64) {
	n := g.N()
	dist := make([]float64, n)
	parent := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = infDist
		parent[i] = -1
	}

	pq := &priorityQueue{}
	heap.Init(pq)

	if s != excludeNode {
		dist[s] = nodeWeight(bids[s], secure[s])
		heap.Push(pq, heapItem{id: s, dist: dist[s]})
	}

	for pq.Len() > 0 {
		curr := heap.Pop(pq).(heapItem)
		u := curr.id
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == t {
			break
		}

		for _, v := range g.Neighbours(u) {
			if v == excludeNode {
				continue
			}
			wv := nodeWeight(bids[v], secure[v])
			if dist[u]+wv < dist[v] {
				dist[v] = dist[u] + wv
				parent[v] = u
				heap.Push(pq, heapItem{id: v, dist: dist[v]})
			}
		}
	}

	if dist[t] >= infDist {
		return nil, dist[t]
	}
	for cur := t; cur != -1; cur = parent[cur] {
		path = append([]int{cur}, path...)
	}
	return path, dist[t]
}

func securitySet(g *engine.Graph, strategy []int) []bool {
	secure := make([]bool, g.N())
	for i, s := range strategy {
		secure[i] = s == 1
	}
	return secure
}

func contains(path []int, node int) bool {
	for _, v := range path {
		if v == node {
			return true
		}
	}
	return false
}

// Run draws random bids for every vertex, picks a random source/target pair
// from the vertices outside the cover, finds the winning path, and computes
// each intermediate node's VCG payment.
func Run(g *engine.Graph, strategy []int, rng *rand.Rand, sink eventlog.Sink) (Result, bool) {
	if sink == nil {
		sink = eventlog.Nop{}
	}
	if g.N() < 2 {
		return Result{}, false
	}
	secure := securitySet(g, strategy)

	bids := make([]int, g.N())
	for i := range bids {
		bids[i] = rng.Intn(90) + 10
	}

	var uncovered []int
	for i, s := range strategy {
		if s == 0 {
			uncovered = append(uncovered, i)
		}
	}
	if len(uncovered) < 2 {
		return Result{}, false
	}
	s := uncovered[rng.Intn(len(uncovered))]
	t := s
	for t == s {
		t = uncovered[rng.Intn(len(uncovered))]
	}

	path, cost := shortestPath(g, s, t, bids, secure, excludeNone)
	if path == nil {
		return Result{}, false
	}

	var payments []Payment
	for _, u := range path[1 : len(path)-1] {
		wu := nodeWeight(bids[u], secure[u])
		costOthers := cost - wu

		_, altCost := shortestPath(g, s, t, bids, secure, u)
		if altCost >= infDist {
			payments = append(payments, Payment{Node: u, Bid: bids[u], Payment: BridgePayment})
			continue
		}
		payment := altCost - costOthers
		payments = append(payments, Payment{Node: u, Bid: bids[u], Payment: payment})
	}

	result := Result{Source: s, Target: t, Bids: bids, Path: path, Cost: cost, Payments: payments}

	logPayments := make([]eventlog.Payment, 0, len(payments))
	for _, p := range payments {
		logPayments = append(logPayments, eventlog.Payment{ID: p.Node, Payment: p.Payment})
	}
	sink.Auction(eventlog.AuctionRecord{Source: s, Target: t, Path: path, Payments: logPayments})

	return result, true
}

// VerifyTruthfulness perturbs the first paid node's bid by the four
// canonical deltas of §4.15 and asserts none of them strictly improves that
// node's net payoff. Returns every trial so a caller can report violations
// rather than silently ignore them.
func VerifyTruthfulness(g *engine.Graph, strategy []int, r Result) []Trial {
	secure := securitySet(g, strategy)

	var winner int
	var winnerPayment float64
	found := false
	for _, p := range r.Payments {
		if p.Payment != BridgePayment {
			winner, winnerPayment = p.Node, p.Payment
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	trueCost := r.Bids[winner]
	currentUtility := winnerPayment - float64(trueCost)

	deltas := []int{-20, -1, 1, 50}
	bids := append([]int(nil), r.Bids...)

	var trials []Trial
	for _, d := range deltas {
		fakeBid := trueCost + d
		if fakeBid <= 0 {
			continue
		}
		bids[winner] = fakeBid

		newPath, newCost := shortestPath(g, r.Source, r.Target, bids, secure, excludeNone)
		stillWins := newPath != nil && contains(newPath, winner)

		newUtility := 0.0
		if stillWins {
			_, altCost := shortestPath(g, r.Source, r.Target, bids, secure, winner)
			if altCost >= infDist {
				newUtility = currentUtility
			} else {
				wWinner := nodeWeight(fakeBid, secure[winner])
				costOthers := newCost - wWinner
				newPayment := altCost - costOthers
				newUtility = newPayment - float64(trueCost)
			}
		}

		trials = append(trials, Trial{
			FakeBid:    fakeBid,
			StillWins:  stillWins,
			NewUtility: newUtility,
			Profitable: newUtility > currentUtility+1e-5,
		})

		bids[winner] = trueCost
	}
	return trials
}
