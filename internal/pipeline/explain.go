//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"fmt"
	"strings"
)

// ExampleQuestions returns questions the student schema can answer.
func ExampleQuestions() []string {
	return []string{
		"Show me all students from CSE department",
		"What is the average LeetCode rating of all students?",
		"Who has the highest Codeforces rating?",
		"List students who participated in contests on LEETCODE platform",
		"How many students are there in each department?",
		"Show me students with LeetCode rating above 1500",
		"Find students who have solved more than 100 LeetCode problems",
		"What are the top 5 students by Codeforces rating?",
	}
}

// errorExamples are listed at the end of every error explanation.
var errorExamples = []string{
	"Show me all students from CSE department",
	"What is the average LeetCode rating?",
	"Who has the highest Codeforces rating?",
	"List students who participated in contests on LEETCODE platform",
}

type hintRule struct {
	keywords []string
	hint     string
}

var hintRules = []hintRule{
	{keywords: []string{"column"}, hint: "- Check column names and use double quotes"},
	{keywords: []string{"enum", "platform"}, hint: "- For platform, use: 'LEETCODE', 'CODEFORCES', 'CODECHEF'"},
	{keywords: []string{"null"}, hint: "- Consider handling NULL values in your query"},
}

// suggestions returns the hint block for errMsg, or "" when no rule
// matches or there is no documentation context.
func suggestions(errMsg, ragContext string) string {
	if ragContext == "" {
		return ""
	}

	lower := strings.ToLower(errMsg)
	var hints []string
	for _, rule := range hintRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				hints = append(hints, rule.hint)
				break
			}
		}
	}
	if len(hints) == 0 {
		return ""
	}

	return "Based on the documentation, here are some suggestions:\n" +
		strings.Join(hints, "\n")
}

// explainError renders the user-facing text for a failed run.
func explainError(errMsg, ragContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "I encountered an error while processing your question: %s\n", errMsg)
	if hint := suggestions(errMsg, ragContext); hint != "" {
		b.WriteString("\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}

	b.WriteString("\nPlease try rephrasing your question or check if:\n")
	b.WriteString("1. The question refers to valid table columns\n")
	b.WriteString("2. The question is clear and specific\n")
	b.WriteString("3. Any date formats are reasonable\n")
	b.WriteString("\nExample questions you can ask:\n")
	for _, q := range errorExamples {
		fmt.Fprintf(&b, "- %q\n", q)
	}

	return strings.TrimSpace(b.String())
}
