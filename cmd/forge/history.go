package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/config"
	"github.com/tryforce-dev/forge/internal/history"
	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/prompt"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded studio sessions",
		Long:  `List, replay, and prune the session history recorded by the studio and by forge generate.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())
	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Long:  `List recorded sessions, newest first. Closed sessions are stored compressed; open sessions belong to a running studio.`,
		Example: `  forge history list
  forge history list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			dir := config.Load().HistoryDir()

			sessions, err := history.ListSessions(dir)
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(sessions)
			}

			if len(sessions) == 0 {
				out.Muted("No recorded sessions.")
				return nil
			}

			for _, s := range sessions {
				state := "open"
				if s.Closed {
					state = "closed"
				}

				out.Print("%s  started=%s  %s\n", s.ID, s.StartedAt.Format(time.RFC3339), state)
			}

			return nil
		},
	}
}

func newHistoryShowCmd() *cobra.Command {
	var errorsOnly bool

	cmd := &cobra.Command{
		Use:     "show <session-id>",
		Short:   "Show the events of one session",
		Long:    `Replay a recorded session: each submission with its selected artifact types, every generated artifact, and any errors.`,
		Example: `  forge history show 6f1c2a9e-ffcc-4ac0-9d6e-8b81f5a6d7c1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			dir := config.Load().HistoryDir()

			meta, events, err := history.ReadSession(dir, args[0])
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(struct {
					Meta   history.Meta    `json:"meta"`
					Events []history.Event `json:"events"`
				}{meta, events})
			}

			out.Print("Session %s  started=%s  version=%s\n", meta.SessionID, meta.StartedAt.Format(time.RFC3339), meta.Version)

			for _, ev := range events {
				if errorsOnly && ev.Type != history.TypeError {
					continue
				}

				switch ev.Type {
				case history.TypeSubmit:
					out.Print("[%s] submit kinds=%v\n", ev.TS.Format(time.RFC3339), ev.Kinds)
					out.Print("  %s\n", ev.Requirement)
				case history.TypeResponse:
					out.Print("[%s] %s\n", ev.TS.Format(time.RFC3339), ev.Kind)
					out.Print("%s\n", ev.Artifact)
				case history.TypeError:
					out.Print("[%s] error: %s\n", ev.TS.Format(time.RFC3339), ev.Message)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "Show only error events")

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:     "prune",
		Short:   "Delete closed sessions older than a duration",
		Long:    `Delete closed sessions that started before the retention window. Open sessions are never pruned.`,
		Example: `  forge history prune --older-than 168h`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			window := history.DefaultRetention()

			if olderThan != "" {
				d, err := time.ParseDuration(olderThan)
				if err != nil {
					return fmt.Errorf("invalid duration for --older-than: %w", err)
				}

				window = d
			}

			removed, err := history.PruneOlderThan(config.Load().HistoryDir(), time.Now().Add(-window))
			if err != nil {
				return err
			}

			out.Success("Removed %d session(s)", removed)

			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Override retention window (example: 168h)")

	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete all recorded sessions",
		Long:    `Delete every recorded session, open or closed. Asks for confirmation unless --force is given.`,
		Example: `  forge history clear --force`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if !force {
				ok, err := prompt.New(out).Confirm("Delete all recorded sessions?", false)
				if err != nil {
					return err
				}

				if !ok {
					out.Muted("Aborted.")
					return nil
				}
			}

			removed, err := history.Clear(config.Load().HistoryDir())
			if err != nil {
				return err
			}

			out.Success("Removed %d session(s)", removed)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
