//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package knowledge

import "sort"

// DefaultRRFConstant is the k constant for Reciprocal Rank Fusion.
const DefaultRRFConstant = 60

type fusedResult struct {
	ID       string
	Score    float64
	VecRank  int // 0 if absent from the vector ranking
	BM25Rank int // 0 if absent from the keyword ranking
}

// reciprocalRankFusion merges two rankings of chunk IDs with
//
//	score = sum(1 / (k + rank))
//
// where rank is 1-based. Equal scores keep the order in which IDs were
// first seen, vector ranking first.
func reciprocalRankFusion(vectorIDs, bm25IDs []string, k float64) []fusedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	byID := make(map[string]*fusedResult)
	var order []*fusedResult

	add := func(id string, rank int, vector bool) {
		r, ok := byID[id]
		if !ok {
			r = &fusedResult{ID: id}
			byID[id] = r
			order = append(order, r)
		}
		r.Score += 1.0 / (k + float64(rank))
		if vector {
			r.VecRank = rank
		} else {
			r.BM25Rank = rank
		}
	}

	for i, id := range vectorIDs {
		add(id, i+1, true)
	}
	for i, id := range bm25IDs {
		add(id, i+1, false)
	}

	results := make([]fusedResult, len(order))
	for i, r := range order {
		results[i] = *r
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
