//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/pipeline"
)

// maxPrintedRows caps the rows shown in text output.
const maxPrintedRows = 20

func printResult(w io.Writer, r *pipeline.Result, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	}

	if r.SQLQuery != "" {
		fmt.Fprintf(w, "\nSQL Query:\n%s\n", r.SQLQuery)
	}
	if len(r.ContextDocs) > 0 {
		fmt.Fprintf(w, "\nContext documents used: %d\n", len(r.ContextDocs))
	}
	if r.Error == "" {
		printRows(w, r.Results)
	}
	fmt.Fprintf(w, "\nAnswer:\n%s\n", r.Answer)
	return nil
}

func printRows(w io.Writer, rows []executor.Row) {
	fmt.Fprintf(w, "\nResults: %d row(s)\n", len(rows))
	if len(rows) == 0 {
		return
	}

	columns := executor.Columns(rows)
	for i, row := range rows {
		if i == maxPrintedRows {
			fmt.Fprintf(w, "  ... %d more\n", len(rows)-maxPrintedRows)
			break
		}
		fmt.Fprint(w, " ")
		for _, c := range columns {
			fmt.Fprintf(w, " %s=%v", c, row[c])
		}
		fmt.Fprintln(w)
	}
}
