//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package answer

import (
	"fmt"
	"strings"
)

var baseGuidelines = []string{
	"Be concise and direct",
	"Include relevant numbers and statistics",
	"If no results found, explain that clearly",
	"Format the response in a user-friendly way",
	"Don't mention technical database details unless relevant",
}

const contextGuideline = "Use context to provide additional explanations when helpful"

func buildPrompt(question, sql, results, ragContext string, withContext bool) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant that explains database query results in natural language.\n")
	if withContext {
		sb.WriteString("Use the provided context to give more informative answers.\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Original Question: %s\n", question)
	fmt.Fprintf(&sb, "SQL Query Used: %s\n", sql)
	fmt.Fprintf(&sb, "Query Results: %s\n\n", results)

	if withContext {
		sb.WriteString("Relevant Context:\n")
		sb.WriteString(ragContext)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Please provide a clear, natural language answer to the original question based on the query results.\n")
	if withContext {
		sb.WriteString("Use the context to provide additional insights where relevant.\n")
	}
	sb.WriteString("\nGuidelines:\n")

	guidelines := append([]string{}, baseGuidelines...)
	if withContext {
		guidelines = append(guidelines, contextGuideline)
	}
	for i, g := range guidelines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, g)
	}

	sb.WriteString("\nAnswer:\n")
	return sb.String()
}
