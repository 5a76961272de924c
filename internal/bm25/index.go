//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package bm25

import (
	"sort"
	"sync"
)

// Match is a ranked document reference.
type Match struct {
	ID    string
	Score float64
}

type document struct {
	seq       int
	length    int
	termFreqs map[string]int
}

// Index is an in-memory BM25 index, safe for concurrent use. Documents
// with equal scores rank in the order they were added.
type Index struct {
	mu        sync.RWMutex
	tokenizer *Tokenizer
	scorer    *Scorer
	docs      map[string]*document
	docFreqs  map[string]int
	totalLen  int
	nextSeq   int
}

// NewIndex creates an empty index with default parameters.
func NewIndex() *Index {
	return NewIndexWithParams(DefaultK1, DefaultB)
}

// NewIndexWithParams creates an empty index with custom parameters.
func NewIndexWithParams(k1, b float64) *Index {
	return &Index{
		tokenizer: NewTokenizer(),
		scorer:    NewScorerWithParams(k1, b),
		docs:      make(map[string]*document),
		docFreqs:  make(map[string]int),
	}
}

// Add indexes content under id. Re-adding an id replaces its content but
// keeps its original position for tie-breaking.
func (idx *Index) Add(id, content string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	termFreqs := idx.tokenizer.TokenFrequencies(content)
	length := 0
	for _, n := range termFreqs {
		length += n
	}

	seq := idx.nextSeq
	if old, ok := idx.docs[id]; ok {
		seq = old.seq
		idx.removeLocked(old)
	} else {
		idx.nextSeq++
	}

	for term := range termFreqs {
		idx.docFreqs[term]++
	}
	idx.docs[id] = &document{seq: seq, length: length, termFreqs: termFreqs}
	idx.totalLen += length
	idx.updateStatsLocked()
}

func (idx *Index) removeLocked(doc *document) {
	for term := range doc.termFreqs {
		if idx.docFreqs[term]--; idx.docFreqs[term] <= 0 {
			delete(idx.docFreqs, term)
		}
	}
	idx.totalLen -= doc.length
}

func (idx *Index) updateStatsLocked() {
	avg := 0.0
	if len(idx.docs) > 0 {
		avg = float64(idx.totalLen) / float64(len(idx.docs))
	}
	idx.scorer.SetCorpusStats(len(idx.docs), avg)
}

// Search returns up to topN documents with a positive score for query,
// highest first.
func (idx *Index) Search(query string, topN int) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 || topN <= 0 {
		return nil
	}

	queryTerms := SortedTerms(idx.tokenizer.TokenFrequencies(query))
	if len(queryTerms) == 0 {
		return nil
	}

	type scored struct {
		id    string
		seq   int
		score float64
	}

	var hits []scored
	for id, doc := range idx.docs {
		score := idx.scorer.ScoreTerms(queryTerms, doc.termFreqs, idx.docFreqs, doc.length)
		if score > 0 {
			hits = append(hits, scored{id: id, seq: doc.seq, score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seq < hits[j].seq
	})

	results := make([]Match, 0, min(topN, len(hits)))
	for i := 0; i < len(hits) && i < topN; i++ {
		results = append(results, Match{ID: hits[i].id, Score: hits[i].score})
	}
	return results
}

// Reset removes all documents.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make(map[string]*document)
	idx.docFreqs = make(map[string]int)
	idx.totalLen = 0
	idx.nextSeq = 0
	idx.updateStatsLocked()
}

// Size returns the number of indexed documents.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}
