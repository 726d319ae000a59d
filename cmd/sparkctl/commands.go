package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"sparkai-backend/app"
	"sparkai-backend/config"
	"sparkai-backend/logging"
	"sparkai-backend/service"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "sparkctl",
		Short:         "Ask compliance questions and review the audit log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	build := func(cmd *cobra.Command) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger := logging.New(cmd.ErrOrStderr(), logLevel)
		slog.SetDefault(logger)
		return app.Build(cmd.Context(), cfg, logger)
	}

	cmd.AddCommand(askCmd(build), logsCmd(build), standardsCmd(build))
	return cmd
}

type builder func(cmd *cobra.Command) (*app.App, error)

func askCmd(build builder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question and record it in the audit log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.Ask(cmd.Context(), service.AskRequest{Question: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"answer":     result.Answer,
					"confidence": result.Confidence,
					"audit_id":   result.AuditID,
					"clauses":    result.Clauses,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Answer)
			fmt.Fprintln(out)
			if result.Confidence != nil {
				fmt.Fprintf(out, "confidence: %.3f\n", *result.Confidence)
			}
			for _, m := range result.Clauses {
				fmt.Fprintf(out, "  %s %s (%.3f)\n", m.Standard, m.Clause, m.Score)
			}
			fmt.Fprintf(out, "audit id: %s\n", result.AuditID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func logsCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Review the audit log",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.ListAuditLogs(cmd.Context(), service.ListAuditLogsRequest{Limit: &limit})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result.Entries)
		},
	}
	list.Flags().IntVar(&limit, "limit", service.DefaultAuditLogLimit, "Maximum number of entries")

	var flagged bool
	flag := &cobra.Command{
		Use:   "flag <id>",
		Short: "Flag an audit entry for review (--flagged=false clears it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.SetAuditFlag(cmd.Context(), service.SetAuditFlagRequest{ID: args[0], Flagged: &flagged})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result.Entry)
		},
	}
	flag.Flags().BoolVar(&flagged, "flagged", true, "Flag value to set")

	export := &cobra.Command{
		Use:   "export",
		Short: "Archive a snapshot of the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.ExportAuditLog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", result.Entries, result.StoragePath)
			return nil
		},
	}

	cmd.AddCommand(list, flag, export)
	return cmd
}

func standardsCmd(build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "standards",
		Short: "List the loaded standards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STANDARD\tCLAUSES")
			for _, s := range a.Service.ListStandards() {
				fmt.Fprintf(w, "%s\t%d\n", s.Name, s.ClauseCount)
			}
			return w.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// executeContext is split out for tests
func executeContext(ctx context.Context, args []string, out io.Writer) error {
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}
