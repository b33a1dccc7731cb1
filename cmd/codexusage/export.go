package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/codexusage/internal/config"
	"github.com/janekbaraniewski/codexusage/internal/store"
	"github.com/janekbaraniewski/codexusage/internal/version"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current daily rows, sessions and block stats to a SQLite file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.reportEngine()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			exp, err := engine.Export(ctx)
			if err != nil {
				return fmt.Errorf("loading sessions: %w", err)
			}
			report := store.Report{
				Roots:    opts.resolved,
				Snapshot: exp.Snapshot,
				Daily:    exp.Daily,
				Sessions: exp.Sessions,
				Block:    exp.Block,
			}

			st, err := store.OpenStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			runID, err := st.WriteReport(ctx, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported run %d to %s\n", runID, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", filepath.Join(config.ConfigDir(), "usage.db"), "SQLite file to write")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "codexusage "+version.String())
		},
	}
}
