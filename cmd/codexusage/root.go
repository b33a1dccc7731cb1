package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/codexusage/internal/analytics"
	"github.com/janekbaraniewski/codexusage/internal/config"
	"github.com/janekbaraniewski/codexusage/internal/core"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	roots       []string
	profile     int
	limit       int
	windowHours int
	tokenLimit  int
	burnWindow  int
	anchor      string

	cfg      config.Config
	resolved []string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "codexusage",
		Short:         "codexusage reports estimated token usage from Codex session logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.ConfigPath(), "path to the config file")
	flags.StringArrayVar(&opts.roots, "root", nil, "Codex base directory (repeatable); overrides profiles, CODEX_CONFIG_DIR and the config file")
	flags.IntVar(&opts.profile, "profile", -1, "index of the configured root profile to use")
	flags.IntVar(&opts.limit, "limit", 0, "maximum number of session files to read (newest first)")
	flags.IntVar(&opts.windowHours, "window-hours", 0, "block window length in hours")
	flags.IntVar(&opts.tokenLimit, "token-limit", 0, "token cap for the block window (0 disables)")
	flags.IntVar(&opts.burnWindow, "burn-window", 0, "trailing minutes used for the burn rate")
	flags.StringVar(&opts.anchor, "anchor", "", "block window anchor: rolling or epoch")

	dashboard := newDashboardCommand(opts)
	root.RunE = dashboard.RunE
	root.Flags().AddFlagSet(dashboard.Flags())

	root.AddCommand(dashboard)
	root.AddCommand(newDailyCommand(opts))
	root.AddCommand(newMonthlyCommand(opts))
	root.AddCommand(newSessionCommand(opts))
	root.AddCommand(newBlocksCommand(opts))
	root.AddCommand(newStatuslineCommand(opts))
	root.AddCommand(newTailCommand(opts))
	root.AddCommand(newExportCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

// load reads the config file and applies flag overrides on top of it.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Config path: %s\n", o.configPath)
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("limit") && o.limit > 0 {
		cfg.Limit = o.limit
	}
	if flags.Changed("window-hours") && o.windowHours > 0 {
		cfg.Block.WindowHours = o.windowHours
	}
	if flags.Changed("token-limit") && o.tokenLimit >= 0 {
		cfg.Block.TokenLimit = o.tokenLimit
	}
	if flags.Changed("burn-window") && o.burnWindow > 0 {
		cfg.Block.BurnWindowMinutes = o.burnWindow
	}
	if flags.Changed("anchor") {
		cfg.Block.Anchor = string(core.ParseAnchor(o.anchor))
	}

	o.cfg = cfg
	o.resolved = cfg.ResolveRoots(o.roots, o.profile, os.Getenv(config.EnvConfigDir))
	return nil
}

func (o *rootOptions) engine() *analytics.Engine {
	return analytics.NewEngine(o.cfg.EngineOptions(o.resolved))
}

// reportEngine returns an engine for one-shot reports, failing when no
// configured root can be read.
func (o *rootOptions) reportEngine() (*analytics.Engine, error) {
	e := o.engine()
	if err := e.CheckRoots(); err != nil {
		return nil, err
	}
	return e, nil
}
