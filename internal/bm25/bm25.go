//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package bm25 provides keyword ranking over knowledge chunks. It is used
// alongside vector similarity when hybrid retrieval is enabled.
package bm25

import (
	"maps"
	"math"
	"slices"
)

// Default ranking parameters.
const (
	// DefaultK1 controls term frequency saturation.
	DefaultK1 = 1.2

	// DefaultB controls document length normalization (0 = none, 1 = full).
	DefaultB = 0.75
)

// Scorer computes Okapi BM25 scores against corpus statistics.
type Scorer struct {
	K1 float64
	B  float64

	docCount int
	avgLen   float64
}

// NewScorer creates a Scorer with the default parameters.
func NewScorer() *Scorer {
	return NewScorerWithParams(DefaultK1, DefaultB)
}

// NewScorerWithParams creates a Scorer with custom parameters.
func NewScorerWithParams(k1, b float64) *Scorer {
	return &Scorer{K1: k1, B: b}
}

// SetCorpusStats records the number of documents and their mean length.
func (s *Scorer) SetCorpusStats(docCount int, avgLen float64) {
	s.docCount = docCount
	s.avgLen = avgLen
}

// IDF returns the inverse document frequency of a term found in docFreq
// documents, using the non-negative Lucene form
//
//	log(1 + (N - df + 0.5) / (df + 0.5))
func (s *Scorer) IDF(docFreq int) float64 {
	if s.docCount == 0 || docFreq == 0 {
		return 0
	}
	n := float64(s.docCount)
	df := float64(docFreq)
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// TermScore returns the contribution of one term occurring tf times in a
// document of docLen tokens.
func (s *Scorer) TermScore(tf, docFreq, docLen int) float64 {
	if tf == 0 || docFreq == 0 || s.docCount == 0 {
		return 0
	}

	norm := 1 - s.B
	if s.avgLen > 0 {
		norm += s.B * float64(docLen) / s.avgLen
	}

	f := float64(tf)
	return s.IDF(docFreq) * (f * (s.K1 + 1)) / (f + s.K1*norm)
}

// Score sums TermScore over the distinct query terms.
func (s *Scorer) Score(queryTerms, docTerms, docFreqs map[string]int, docLen int) float64 {
	return s.ScoreTerms(SortedTerms(queryTerms), docTerms, docFreqs, docLen)
}

// ScoreTerms sums TermScore over terms in the order given. Callers that
// compare scores for equality must pass the terms in a fixed order, since
// floating point addition is not associative.
func (s *Scorer) ScoreTerms(terms []string, docTerms, docFreqs map[string]int, docLen int) float64 {
	var score float64
	for _, term := range terms {
		score += s.TermScore(docTerms[term], docFreqs[term], docLen)
	}
	return score
}

// SortedTerms returns the keys of a term frequency map in lexical order.
func SortedTerms(freqs map[string]int) []string {
	return slices.Sorted(maps.Keys(freqs))
}
