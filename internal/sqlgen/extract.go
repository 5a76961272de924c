//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sqlgen

import "strings"

const fence = "```"

var statementKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// Extract isolates the SQL statement in raw model output. It never fails:
// text with no recognizable statement is returned trimmed.
//
// Precedence:
//  1. A fenced block tagged sql (any case), up to the next closing fence
//  2. Otherwise any fenced block, up to the next closing fence
//  3. Otherwise the lines from the first one containing a statement
//     keyword through the first line ending in a semicolon
//  4. Otherwise the trimmed input
func Extract(raw string) string {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	if open := strings.Index(lower, fence+"sql"); open != -1 {
		start := open + len(fence+"sql")
		if end := strings.Index(text[start:], fence); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	} else if open := strings.Index(text, fence); open != -1 {
		start := open + len(fence)
		if end := strings.Index(text[start:], fence); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	if containsKeyword(text) {
		return captureStatement(text)
	}

	return text
}

// captureStatement returns the lines starting at the first line that
// mentions a statement keyword and ending at the first captured line whose
// trimmed form ends with a semicolon.
func captureStatement(text string) string {
	var captured []string
	capturing := false

	for _, line := range strings.Split(text, "\n") {
		if !capturing && containsKeyword(line) {
			capturing = true
		}
		if !capturing {
			continue
		}
		captured = append(captured, line)
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			break
		}
	}

	return strings.TrimSpace(strings.Join(captured, "\n"))
}

func containsKeyword(s string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range statementKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
