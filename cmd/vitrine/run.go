package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrinedev/vitrine/internal/api"
	"github.com/vitrinedev/vitrine/internal/browser"
	"github.com/vitrinedev/vitrine/internal/config"
	"github.com/vitrinedev/vitrine/internal/events"
	"github.com/vitrinedev/vitrine/internal/logging"
	"github.com/vitrinedev/vitrine/internal/metrics"
	"github.com/vitrinedev/vitrine/internal/power"
	"github.com/vitrinedev/vitrine/internal/proc"
	"github.com/vitrinedev/vitrine/internal/screen"
	"github.com/vitrinedev/vitrine/internal/supervisor"
	"github.com/vitrinedev/vitrine/internal/version"
	"github.com/vitrinedev/vitrine/internal/window"
	"github.com/vitrinedev/vitrine/internal/workload"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <workload command>",
	Short: "Run the Vitrine kiosk supervisor",
	Long: "Runs the supervisor in the foreground. Everything after -- (or the\n" +
		"remaining arguments) is the workload command to supervise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		command := workloadCommand(cmd, args)
		if command == "" {
			return fmt.Errorf("missing workload command: vitrine run -- <command>")
		}

		cfg, warnings, err := config.Load(runConfigPath)
		if err != nil {
			return err
		}

		logger := logging.New(logging.LogConfig{
			Level:  cfg.Supervisor.LogLevel,
			Format: cfg.Supervisor.LogFormat,
		})
		for _, w := range warnings {
			logger.Warn("config warning", "warning", w)
		}

		if cfg.Kiosk.ProfileDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("cannot determine home directory for profile: %w", err)
			}
			cfg.Kiosk.ProfileDir = filepath.Join(home, ".config", "vitrine", "profile")
		}

		bus := events.NewBus(logger)
		collector := metrics.New()
		collector.SetBuildInfo(version.Version, runtime.Version())
		collector.Observe(bus)

		spawner := &proc.ExecSpawner{}
		screens := screen.NewXrandrQuery(logging.Component(logger, "screen"))
		positioner := buildPositioner(cfg, logger)

		launcher := browser.NewLauncher(browser.Config{
			URL:          cfg.Kiosk.URL,
			Candidates:   cfg.Kiosk.Browsers,
			ProfileDir:   cfg.Kiosk.ProfileDir,
			LaunchCheck:  time.Duration(cfg.Kiosk.LaunchCheckMs) * time.Millisecond,
			CloseTimeout: time.Duration(cfg.Kiosk.CloseTimeoutSecs) * time.Second,
		}, spawner, positioner, logging.Component(logger, "browser"))

		workloads := workload.NewManager(spawner,
			time.Duration(cfg.Workload.KillSettleMs)*time.Millisecond,
			logging.Component(logger, "workload"))

		var powerSource power.Source
		if cfg.PowerEnabled() {
			powerSource = power.DiscoverSource(cfg.Power.SupplyPath, logging.Component(logger, "power"))
		}

		sup := supervisor.New(supervisor.Config{
			Config:      cfg,
			Command:     command,
			Screens:     screens,
			Launcher:    browserLauncher{launcher},
			Workloads:   workloads,
			PowerSource: powerSource,
			Spawner:     spawner,
			Bus:         bus,
			Logger:      logging.Component(logger, "supervisor"),
			PIDFile:     cfg.Supervisor.PIDFile,
		})

		var statusSrv *api.Server
		if cfg.Server.Enabled {
			statusSrv = api.NewServer(api.Config{
				Listen:   cfg.Server.Listen,
				Username: cfg.Server.Username,
				Password: cfg.Server.Password,
			}, sup, collector.Handler(), logging.Component(logger, "api"))
			if err := statusSrv.Start(cfg.Server.Listen); err != nil {
				return fmt.Errorf("status server: %w", err)
			}
		}

		code, err := sup.Run(cmd.Context())

		if statusSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			statusSrv.Stop(ctx)
			cancel()
		}

		if err != nil {
			logger.Error("supervisor failed", "error", err)
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// workloadCommand assembles the workload command string from the
// arguments after --, or the whole remaining argument list.
func workloadCommand(cmd *cobra.Command, args []string) string {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		args = args[at:]
	}
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, quoteArg(a))
	}
	return strings.TrimSpace(strings.Join(quoted, " "))
}

// quoteArg quotes a single argument so the command parser tokenizes it
// back to the original string. Arguments containing single quotes use
// the shell idiom of closing the quote around an embedded '"'"'.
func quoteArg(a string) string {
	if a == "" {
		return `""`
	}
	if !strings.ContainsAny(a, " \t\n'\"") {
		return a
	}
	return "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
}

func buildPositioner(cfg *config.Config, logger *slog.Logger) window.Positioner {
	wcfg := window.Config{Attempts: cfg.Kiosk.PositionAttempts}
	wlog := logging.Component(logger, "window")
	if cfg.Kiosk.WindowTool == "sway" {
		return window.NewSwayPositioner(window.ExecRunner{}, wcfg, wlog)
	}
	return window.NewWmctrlPositioner(window.ExecRunner{}, wcfg, wlog)
}

// browserLauncher adapts the concrete launcher to the supervisor's
// Browser interface.
type browserLauncher struct {
	l *browser.Launcher
}

func (b browserLauncher) Launch(ctx context.Context, sc screen.Info) (supervisor.Browser, error) {
	inst, err := b.l.Launch(ctx, sc)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "vitrine.toml", "config file path")
	rootCmd.AddCommand(runCmd)
}
