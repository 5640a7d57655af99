package engine

// IsValidCover checks, for every edge (u,v) with u<v, that s[u] or s[v] is 1.
// O(n+m).
func IsValidCover(g *Graph, s []int) bool {
	for u := 0; u < g.N(); u++ {
		if s[u] == 1 {
			continue
		}
		for _, v := range g.Neighbours(u) {
			if u >= v {
				continue
			}
			if s[v] == 0 {
				return false
			}
		}
	}
	return true
}

// IsMinimal checks that every in-set vertex has a private edge: a neighbour
// outside the set witnessing that the vertex cannot be removed. O(n+m).
func IsMinimal(g *Graph, s []int) bool {
	hasPrivate := make([]bool, g.N())
	for u := 0; u < g.N(); u++ {
		for _, v := range g.Neighbours(u) {
			if u >= v {
				continue
			}
			su, sv := s[u] == 1, s[v] == 1
			if su && !sv {
				hasPrivate[u] = true
			} else if !su && sv {
				hasPrivate[v] = true
			}
		}
	}
	for i, in := range s {
		if in == 1 && !hasPrivate[i] {
			return false
		}
	}
	return true
}
