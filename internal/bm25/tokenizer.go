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
	"strings"
	"unicode"
)

// DefaultStopWords contains common English words that carry no ranking
// signal in questions about the data.
var DefaultStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "was": true, "were": true, "will": true, "with": true,
	"this": true, "but": true, "they": true, "have": true, "had": true,
	"what": true, "when": true, "where": true, "who": true, "which": true,
	"why": true, "how": true, "do": true, "does": true, "there": true,
	"can": true, "should": true, "i": true, "you": true, "we": true,
	"me": true, "my": true, "your": true, "our": true, "their": true,
	"show": true, "please": true, "give": true, "list": true,
}

// Tokenizer turns text into lowercase terms. Mixed-case identifiers such
// as column names are indexed whole and by their camel-case parts, so
// "totalQuestions" matches questions about "total questions".
type Tokenizer struct {
	stopWords        map[string]bool
	splitIdentifiers bool
}

// NewTokenizer creates a tokenizer with the default stop words and
// identifier splitting enabled.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopWords:        DefaultStopWords,
		splitIdentifiers: true,
	}
}

// NewTokenizerWithStopWords creates a tokenizer with custom stop words.
func NewTokenizerWithStopWords(stopWords map[string]bool) *Tokenizer {
	return &Tokenizer{
		stopWords:        stopWords,
		splitIdentifiers: true,
	}
}

// Tokenize splits text on anything that is not a letter or digit.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.FieldsFunc(text, isSeparator) {
		tokens = t.appendToken(tokens, word)
		if !t.splitIdentifiers {
			continue
		}
		if parts := splitCamelCase(word); len(parts) > 1 {
			for _, part := range parts {
				tokens = t.appendToken(tokens, part)
			}
		}
	}
	return tokens
}

// TokenFrequencies returns a map of token to frequency count.
func (t *Tokenizer) TokenFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, token := range t.Tokenize(text) {
		freqs[token]++
	}
	return freqs
}

func (t *Tokenizer) appendToken(tokens []string, word string) []string {
	token := strings.ToLower(word)
	if len(token) < 2 || t.stopWords[token] {
		return tokens
	}
	return append(tokens, token)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// splitCamelCase breaks an identifier at lower-to-upper transitions and at
// the end of an upper-case run followed by a lower-case letter, so
// "StudentRecord" yields Student, Record and "SQLQuery" yields SQL, Query.
func splitCamelCase(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur)
		if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
