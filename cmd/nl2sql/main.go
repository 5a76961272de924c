//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Command nl2sql answers questions from the terminal using the pipelines
// defined in the server configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	envFile    string
	pipeline   string
	jsonOutput bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "nl2sql",
		Short:         "Ask questions about the student database in plain English",
		Long:          "Translate natural-language questions into SQL, run them against PostgreSQL and explain the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	flags.StringVarP(&opts.pipeline, "pipeline", "p", "", "Pipeline to use (default: first configured)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(createAskCommand(opts))
	rootCmd.AddCommand(createInteractiveCommand(opts))
	rootCmd.AddCommand(createKnowledgeCommand(opts))
	rootCmd.AddCommand(createPipelinesCommand(opts))
	rootCmd.AddCommand(createSchemaCommand())
	rootCmd.AddCommand(createExamplesCommand())

	return rootCmd
}
