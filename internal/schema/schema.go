//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema describes the relational schema that generated queries
// target.
package schema

// TableName is the quoted-identifier name of the student records table.
const TableName = "StudentRecord"

// Platform values accepted by the platform enum column.
const (
	PlatformLeetCode   = "LEETCODE"
	PlatformCodeforces = "CODEFORCES"
	PlatformCodeChef   = "CODECHEF"
)

// Platforms lists the enum values in declaration order.
var Platforms = []string{PlatformLeetCode, PlatformCodeforces, PlatformCodeChef}

// Column describes one column of the StudentRecord table.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Columns lists the StudentRecord columns in table order.
var Columns = []Column{
	{"id", "TEXT", "Primary Key, UUID"},
	{"studentid", "TEXT", "Student identifier"},
	{"leetcodeid", "TEXT", "LeetCode username"},
	{"codeforcesid", "TEXT", "Codeforces username"},
	{"codechefid", "TEXT", "CodeChef username"},
	{"leetcoderating", "INTEGER", "LeetCode rating"},
	{"codeforcesrating", "INTEGER", "Codeforces rating"},
	{"codechefrating", "INTEGER", "CodeChef rating"},
	{"leetcodeproblemcount", "INTEGER", "Number of problems solved on LeetCode"},
	{"department", "TEXT", "Academic department"},
	{"batch", "TEXT", "Academic batch/year"},
	{"platform", "Platform ENUM ('LEETCODE', 'CODEFORCES', 'CODECHEF')", ""},
	{"contestname", "TEXT", "Contest name"},
	{"contestrank", "INTEGER", "Rank in contest"},
	{"contestdate", "TIMESTAMP WITH TIME ZONE", "Contest date"},
	{"createdat", "TIMESTAMP WITH TIME ZONE", "Record creation time"},
	{"updatedat", "TIMESTAMP WITH TIME ZONE", "Record update time"},
}

// Descriptor is the human-readable schema text injected into every
// generation prompt.
const Descriptor = `Database Schema for StudentRecord table:

Table: StudentRecord
Columns:
- id: TEXT (Primary Key, UUID)
- studentid: TEXT (Student identifier)
- leetcodeid: TEXT (LeetCode username)
- codeforcesid: TEXT (Codeforces username)
- codechefid: TEXT (CodeChef username)
- leetcoderating: INTEGER (LeetCode rating)
- codeforcesrating: INTEGER (Codeforces rating)
- codechefrating: INTEGER (CodeChef rating)
- leetcodeproblemcount: INTEGER (Number of problems solved on LeetCode)
- department: TEXT (Academic department)
- batch: TEXT (Academic batch/year)
- platform: Platform ENUM ('LEETCODE', 'CODEFORCES', 'CODECHEF')
- contestname: TEXT (Contest name)
- contestrank: INTEGER (Rank in contest)
- contestdate: TIMESTAMP WITH TIME ZONE (Contest date)
- createdat: TIMESTAMP WITH TIME ZONE (Record creation time)
- updatedat: TIMESTAMP WITH TIME ZONE (Record update time)`
