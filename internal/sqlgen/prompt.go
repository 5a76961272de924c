//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sqlgen

import (
	"fmt"
	"strings"
)

var baseGuidelines = []string{
	`Use double quotes for table and column names (e.g., "StudentRecord", "studentId")`,
	"For Platform enum, use values: 'LEETCODE', 'CODEFORCES', 'CODECHEF'",
	"Write efficient queries with proper WHERE clauses when needed",
	"Use appropriate aggregation functions (COUNT, AVG, MAX, MIN, SUM) when needed",
	"For date comparisons, use proper TIMESTAMP formatting",
}

var contextGuidelines = []string{
	"Handle NULL values appropriately",
	"Use the provided examples and context to guide your query construction",
}

const finalGuideline = "Return only the SQL query, no explanations"

// buildPrompt formats the generation prompt. When withContext is set the
// retrieved context block and the context-specific guidelines are included,
// even if ragContext is empty.
func buildPrompt(schemaText, question, ragContext string, withContext bool) string {
	var sb strings.Builder

	if withContext {
		sb.WriteString("You are a SQL expert with access to relevant documentation and examples.\n")
		sb.WriteString("Convert the following natural language question into a SQL query.\n\n")
	} else {
		sb.WriteString("You are a SQL expert. Convert the following natural language question into a SQL query.\n\n")
	}

	sb.WriteString(schemaText)
	sb.WriteString("\n\n")

	if withContext {
		sb.WriteString("Relevant Context and Examples:\n")
		sb.WriteString(ragContext)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "Question: %s\n\n", question)

	guidelines := append([]string{}, baseGuidelines...)
	if withContext {
		guidelines = append(guidelines, contextGuidelines...)
	}
	guidelines = append(guidelines, finalGuideline)

	sb.WriteString("Important guidelines:\n")
	for i, g := range guidelines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, g)
	}

	sb.WriteString("\nSQL Query:\n")

	return sb.String()
}
