package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/codexusage/internal/config"
	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/discovery"
	"github.com/janekbaraniewski/codexusage/internal/live"
	"github.com/janekbaraniewski/codexusage/internal/tui"
)

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	var (
		poll     bool
		interval int
		debounce int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the live terminal dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			liveOpts := dashboardLiveOptions(opts.cfg, cmd, poll, interval, debounce)
			return runDashboard(cmd.Context(), opts, liveOpts)
		},
	}
	cmd.Flags().BoolVar(&poll, "poll", false, "rebuild on a fixed interval instead of watching files")
	cmd.Flags().IntVar(&interval, "interval", 0, "poll interval in seconds")
	cmd.Flags().IntVar(&debounce, "debounce", 0, "watch debounce in milliseconds")
	return cmd
}

func dashboardLiveOptions(cfg config.Config, cmd *cobra.Command, poll bool, interval, debounce int) live.Options {
	opts := cfg.LiveOptions()
	if poll {
		opts.Mode = live.ModePoll
	}
	if cmd.Flags().Changed("interval") && interval > 0 {
		opts.PollInterval = time.Duration(interval) * time.Second
	}
	if cmd.Flags().Changed("debounce") && debounce > 0 {
		opts.Debounce = time.Duration(debounce) * time.Millisecond
	}
	return opts
}

func runDashboard(parent context.Context, opts *rootOptions, liveOpts live.Options) error {
	tui.SetThemeByName(opts.cfg.Theme)

	engine := opts.engine()
	rootErr := engine.CheckRoots()

	dirs := discovery.WatchDirs(opts.resolved)
	if liveOpts.Mode == live.ModeWatch && len(dirs) == 0 {
		log.Printf("[dashboard] no sessions directory to watch, polling every %s", liveOpts.PollInterval)
		liveOpts.Mode = live.ModePoll
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	model := tui.NewModel(string(liveOpts.Mode))

	var program *tea.Program

	build := func(ctx context.Context) (core.Dashboard, error) {
		d, err := engine.Dashboard(ctx)
		if err != nil && ctx.Err() == nil && program != nil {
			program.Send(tui.ErrMsg{Err: err})
		}
		return d, err
	}

	model.SetOnRefresh(func() {
		go func() {
			d, err := engine.Dashboard(ctx)
			if err != nil {
				program.Send(tui.ErrMsg{Err: err})
				return
			}
			program.Send(tui.DashboardMsg(d))
		}()
	})

	configPath := opts.configPath
	model.SetOnThemeChange(func(name string) error {
		return config.SaveThemeTo(configPath, name)
	})

	program = tea.NewProgram(model, tea.WithAltScreen())

	sub, err := live.Start(ctx, liveOpts, dirs, build)
	if err != nil {
		return fmt.Errorf("starting live updates: %w", err)
	}
	defer sub.Stop()

	go live.Deliver(sub, func(d core.Dashboard) {
		program.Send(tui.DashboardMsg(d))
	})
	if rootErr != nil {
		go program.Send(tui.ErrMsg{Err: rootErr})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
			program.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
