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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/observability"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/pipeline"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/schema"
)

// session holds a loaded configuration and its pipeline manager.
type session struct {
	cfg      *config.Config
	manager  *pipeline.Manager
	pipeline string
}

func openSession(opts *options) (*session, error) {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Console output belongs to answers; logs go to stderr.
	logger := observability.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	name := opts.pipeline
	if name == "" {
		name = cfg.Pipelines[0].Name
	}

	manager, err := pipeline.NewManagerWithLogger(pipeline.ManagerConfig{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	if _, err := manager.Get(name); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("%w: %s", err, name)
	}

	return &session{cfg: cfg, manager: manager, pipeline: name}, nil
}

func (s *session) Close() error {
	return s.manager.Close()
}

func createAskCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := s.manager.Run(ctx, s.pipeline, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, opts.jsonOutput)
		},
	}
}

func createInteractiveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Ask questions in a loop until 'quit'",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return interactiveLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(),
				func(ctx context.Context, question string) (*pipeline.Result, error) {
					return s.manager.Run(ctx, s.pipeline, question)
				}, opts.jsonOutput)
		},
	}
}

type runFunc func(ctx context.Context, question string) (*pipeline.Result, error)

// interactiveLoop reads one question per line until EOF, "quit", "exit"
// or "q".
func interactiveLoop(ctx context.Context, in io.Reader, out io.Writer, run runFunc, asJSON bool) error {
	fmt.Fprintln(out, "Natural Language to SQL Query System")
	fmt.Fprintln(out, "Type 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nEnter your question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		result, err := run(ctx, question)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if err := printResult(out, result, asJSON); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func createKnowledgeCommand(opts *options) *cobra.Command {
	knowledgeCmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage retrieval documentation",
	}

	var file string
	var meta []string

	addCmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add documentation to the knowledge store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := knowledgeContent(args, file)
			if err != nil {
				return err
			}
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}

			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := s.manager.AddKnowledge(cmd.Context(), content, metadata)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&file, "file", "f", "", "Read content from a file")
	addCmd.Flags().StringArrayVarP(&meta, "meta", "m", nil, "Metadata as key=value (repeatable)")

	knowledgeCmd.AddCommand(addCmd)
	return knowledgeCmd
}

func knowledgeContent(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("give content as an argument or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("content is required")
	}
}

// parseMetadata turns key=value pairs into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	md := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		md[key] = strings.TrimSpace(value)
	}
	return md, nil
}

func createPipelinesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List configured pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, p := range cfg.Pipelines {
				variant := pipeline.VariantPlain
				if p.Retrieval {
					variant = pipeline.VariantRAG
				}
				fmt.Fprintf(out, "%-24s %-6s %s\n", p.Name, variant, p.Description)
			}
			return nil
		},
	}
}

func createSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description used in prompts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), schema.Descriptor)
		},
	}
}

func createExamplesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Print example questions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, q := range pipeline.ExampleQuestions() {
				fmt.Fprintln(cmd.OutOrStdout(), "-", q)
			}
		},
	}
}
