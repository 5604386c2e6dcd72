// Command rulebot drives a pool of interactive shells under a
// declarative rule file: it spawns the pool, starts the rule-evaluation
// and child-process-watcher tasks per agent, fires configured triggers,
// and keeps running until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trybotster/rulebot/internal/agent"
	"github.com/trybotster/rulebot/internal/config"
	"github.com/trybotster/rulebot/internal/queue"
	"github.com/trybotster/rulebot/internal/rules"
	"github.com/trybotster/rulebot/internal/trigger"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "rulebot",
		Short:   "Rule-driven terminal automation engine",
		Version: Version,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and compile a rule file without spawning any agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("ok: pool=%d triggers=%d rules=%d\n", cfg.Pool, len(cfg.Triggers), len(cfg.Rules))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "rulebot.yaml", "path to the rule file")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		path       string
		shell      string
		dir        string
		snapshot   string
		watch      bool
		foreground bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine against a rule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := setupLogging(foreground)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			return runEngine(cmd.Context(), cfg, path, shell, dir, snapshot, watch, log)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "rulebot.yaml", "path to the rule file")
	cmd.Flags().StringVar(&shell, "shell", "", "shell command to spawn per agent (default: $SHELL)")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for spawned shells")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "path to a queue snapshot file to load at startup and save at shutdown")
	cmd.Flags().BoolVar(&watch, "watch", false, "hot-reload triggers and rules when the rule file changes")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "also log to stderr instead of only the log file")
	return cmd
}

func runEngine(ctx context.Context, cfg *config.Config, cfgPath, shell, dir, snapshot string, watch bool, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := agent.NewPool(agent.PoolConfig{
		Size:         cfg.Pool,
		Cols:         cfg.Cols,
		Rows:         cfg.Rows,
		ShellCommand: shell,
		Dir:          dir,
	}, log)
	if err != nil {
		return fmt.Errorf("starting agent pool: %w", err)
	}
	defer pool.Close()

	queues := queue.NewManager()
	if snapshot != "" {
		if err := queues.LoadSnapshot(snapshot); err != nil {
			log.Warn("loading queue snapshot failed, starting with empty queues", "path", snapshot, "error", err)
		}
		defer func() {
			if err := queues.SaveSnapshot(snapshot); err != nil {
				log.Warn("saving queue snapshot failed", "path", snapshot, "error", err)
			}
		}()
	}

	engine := rules.NewEngine(cfg.Rules)
	runners := make([]*rules.Runner, 0, len(pool.Agents()))
	for _, ag := range pool.Agents() {
		runner := rules.NewRunner(engine, ag, log)
		runners = append(runners, runner)
		go runner.Run(ctx)
	}
	pool.StartWatchers(ctx)

	scheduler := trigger.NewScheduler(cfg.Triggers, pool, log)
	scheduler.RunStartup(ctx)
	scheduler.StartPeriodic(ctx)

	if watch {
		watcher, err := config.Watch(cfgPath, log, func(newCfg *config.Config) {
			log.Info("rule file changed, applying new triggers/rules to the running engine",
				"triggers", len(newCfg.Triggers), "rules", len(newCfg.Rules))
			newEngine := rules.NewEngine(newCfg.Rules)
			for _, runner := range runners {
				runner.SetEngine(newEngine)
			}
			scheduler.SetTriggers(ctx, newCfg.Triggers)
		})
		if err != nil {
			log.Warn("starting config watcher failed", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	log.Info("rulebot running", "pool", cfg.Pool, "triggers", len(cfg.Triggers), "rules", len(cfg.Rules))
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func setupLogging(foreground bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if lv := os.Getenv("RULEBOT_LOG_LEVEL"); lv != "" {
		_ = level.UnmarshalText([]byte(lv))
	}

	logFile, err := os.Create("/tmp/rulebot.log")
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var handler slog.Handler
	if foreground {
		handler = slog.NewTextHandler(io.MultiWriter(logFile, os.Stderr), &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log, func() { logFile.Close() }, nil
}
