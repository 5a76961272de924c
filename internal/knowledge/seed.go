//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package knowledge

import "fmt"

// Metadata keys and values attached to chunks.
const (
	MetadataSource    = "source"
	MetadataType      = "type"
	MetadataTimestamp = "timestamp"

	TypeSQLDocumentation = "sql_documentation"
	TypeCustom           = "custom"
	SourceUserAdded      = "user_added"
)

// Document is unsplit knowledge text with its metadata.
type Document struct {
	Content  string
	Metadata map[string]string
}

var seedCorpus = []string{
	`Common SQL Query Patterns for StudentRecord Table:

1. Basic Selection:
SELECT * FROM "StudentRecord" WHERE "department" = 'CSE';

2. Aggregation Queries:
SELECT AVG("leetcoderating") FROM "StudentRecord" WHERE "leetcoderating" > 0;
SELECT COUNT(*) FROM "StudentRecord" GROUP BY "department";

3. Top N Queries:
SELECT * FROM "StudentRecord" ORDER BY "codeforcesrating" DESC LIMIT 5;

4. Join and Complex Filters:
SELECT "studentid", "department", "leetcoderating"
FROM "StudentRecord"
WHERE "leetcoderating" > 1500 AND "department" = 'CSE';`,

	`Database Schema Best Practices:

Table: StudentRecord
- Always use double quotes for table and column names
- Platform enum values: 'LEETCODE', 'CODEFORCES', 'CODECHEF'
- Date fields are TIMESTAMP WITH TIME ZONE
- Rating fields are INTEGER (can be NULL)
- Use proper WHERE clauses for filtering
- Use ORDER BY for sorting results
- Use LIMIT for restricting result count`,

	`Common Query Categories and Examples:

1. Department-based queries:
- "Show me all students from CSE department"
SQL: SELECT * FROM "StudentRecord" WHERE "department" = 'CSE';

2. Rating-based queries:
- "What is the average LeetCode rating?"
SQL: SELECT AVG("leetcoderating") FROM "StudentRecord" WHERE "leetcoderating" > 0;

3. Top performers:
- "Who has the highest Codeforces rating?"
SQL: SELECT * FROM "StudentRecord" ORDER BY "codeforcesrating" DESC LIMIT 1;

4. Contest participation:
- "List students who participated in LEETCODE contests"
SQL: SELECT DISTINCT "studentid", "leetcodeid" FROM "StudentRecord" WHERE "platform" = 'LEETCODE';`,

	`Error Handling and Common Issues:

1. NULL values: Always check for NULL in rating fields
Example: WHERE "leetcoderating" IS NOT NULL AND "leetcoderating" > 1000

2. Platform enum: Use exact values 'LEETCODE', 'CODEFORCES', 'CODECHEF'

3. Date queries: Use proper timestamp format
Example: WHERE "contestdate" >= '2024-01-01'::timestamp

4. Case sensitivity: Column names are case-sensitive, use double quotes

5. Aggregation: Always handle division by zero in averages
Example: CASE WHEN COUNT(*) > 0 THEN AVG("rating") ELSE 0 END`,

	`Advanced Query Patterns:

1. Statistical Queries:
SELECT
    "department",
    COUNT(*) as student_count,
    AVG("leetcoderating") as avg_leetcode,
    MAX("codeforcesrating") as max_codeforces
FROM "StudentRecord"
WHERE "leetcoderating" IS NOT NULL
GROUP BY "department";

2. Multi-platform analysis:
SELECT
    "studentid",
    "leetcoderating",
    "codeforcesrating",
    "codechefrating",
    ("leetcoderating" + "codeforcesrating" + "codechefrating") as total_rating
FROM "StudentRecord"
WHERE "leetcoderating" IS NOT NULL
    AND "codeforcesrating" IS NOT NULL
    AND "codechefrating" IS NOT NULL;

3. Time-based queries:
SELECT * FROM "StudentRecord"
WHERE "contestdate" >= CURRENT_DATE - INTERVAL '30 days'
ORDER BY "contestdate" DESC;`,
}

// SeedDocuments returns the documentation loaded into an empty collection.
func SeedDocuments() []Document {
	docs := make([]Document, len(seedCorpus))
	for i, content := range seedCorpus {
		docs[i] = Document{
			Content: content,
			Metadata: map[string]string{
				MetadataSource: fmt.Sprintf("sql_knowledge_%d", i),
				MetadataType:   TypeSQLDocumentation,
			},
		}
	}
	return docs
}
