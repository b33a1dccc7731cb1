package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/codexusage/internal/analytics"
	"github.com/janekbaraniewski/codexusage/internal/reports"
)

func newDailyCommand(opts *rootOptions) *cobra.Command {
	var asCSV, asJSON bool
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show estimated tokens and messages per calendar day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asCSV && asJSON {
				return fmt.Errorf("--csv and --json are mutually exclusive")
			}
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			rows, err := engine.Daily(cmd.Context())
			if err != nil {
				return fmt.Errorf("daily report: %w", err)
			}
			out := cmd.OutOrStdout()
			switch {
			case asCSV:
				return reports.WriteDailyCSV(out, rows)
			case asJSON:
				return reports.WriteJSON(out, rows)
			default:
				return reports.WriteDaily(out, rows)
			}
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV (date,tokens,messages)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newMonthlyCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show daily totals grouped by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			rows, err := engine.Monthly(cmd.Context())
			if err != nil {
				return fmt.Errorf("monthly report: %w", err)
			}
			if asJSON {
				return reports.WriteJSON(cmd.OutOrStdout(), rows)
			}
			return reports.WriteMonthly(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newSessionCommand(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		count  int
	)
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Show per-session totals, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			rows, err := engine.Sessions(cmd.Context(), count)
			if err != nil {
				return fmt.Errorf("session report: %w", err)
			}
			if asJSON {
				return reports.WriteJSON(cmd.OutOrStdout(), rows)
			}
			return reports.WriteSessions(cmd.OutOrStdout(), rows, engine.Options().Location)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	cmd.Flags().IntVarP(&count, "count", "n", analytics.DefaultSessionRows, "number of sessions to show")
	return cmd
}

func newBlocksCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Show the current block window, burn rate and projected time to the token cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			stats, err := engine.Block(cmd.Context())
			if err != nil {
				return fmt.Errorf("block report: %w", err)
			}
			if asJSON {
				return reports.WriteJSON(cmd.OutOrStdout(), reports.NewBlockJSON(stats))
			}
			return reports.WriteBlock(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newStatuslineCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "statusline",
		Short: "Print a single status line for shell prompts and editors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			stats, err := engine.Block(cmd.Context())
			if err != nil {
				return fmt.Errorf("statusline: %w", err)
			}
			if asJSON {
				return reports.WriteJSON(cmd.OutOrStdout(), reports.NewStatuslineJSON(stats))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reports.Statusline(stats))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newTailCommand(opts *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		minutes int
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent token-bearing events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("minutes") && minutes > 0 {
				opts.cfg.Tail.Minutes = minutes
			}
			if flags.Changed("max") && maxRows > 0 {
				opts.cfg.Tail.Max = maxRows
			}
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			rows, err := engine.Recent(cmd.Context())
			if err != nil {
				return fmt.Errorf("tail: %w", err)
			}
			if asJSON {
				return reports.WriteJSON(cmd.OutOrStdout(), rows)
			}
			return reports.WriteTail(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	cmd.Flags().IntVar(&minutes, "minutes", analytics.DefaultTailMinutes, "look-back window in minutes")
	cmd.Flags().IntVar(&maxRows, "max", analytics.DefaultTailMax, "maximum number of events")
	return cmd
}
