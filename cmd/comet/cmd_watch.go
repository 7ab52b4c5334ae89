package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comet/internal/config"
	"comet/internal/rules"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd runs the engine with the rule file watcher
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch rule files and hot-reload shortcuts",
	Long: `Loads the configured rule files and keeps watching them for
changes. Modified or newly created rule files are reloaded into the
registry after a debounce window; re-registration overwrites by id.

Runs until interrupted (Ctrl-C).`,
	RunE: watchRules,
}

func watchRules(cmd *cobra.Command, args []string) error {
	eng, cfg, err := bootEngine()
	if err != nil {
		return err
	}

	paths := rulesPaths
	if len(paths) == 0 {
		paths = resolveRulePaths(resolveWorkspace(), cfg)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no rule paths configured (set rules.paths in %s or pass --rules)",
			config.Path(resolveWorkspace()))
	}

	debounce := time.Duration(cfg.Rules.DebounceMs) * time.Millisecond
	watcher, err := rules.NewWatcher(paths, rules.NewLoader(), eng, debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	logger.Info("Watching rule files",
		zap.Strings("paths", paths),
		zap.Duration("debounce", debounce),
		zap.Int("shortcuts", eng.Count()))
	fmt.Printf("Watching %d path(s), %d shortcut(s) loaded. Ctrl-C to stop.\n",
		len(paths), eng.Count())

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
	}

	stats := watcher.GetStats()
	fmt.Printf("Stopped. %d reload(s), %d shortcut(s) reloaded, %d error(s).\n",
		stats.ReloadsTriggered, stats.ShortcutsReloaded, stats.Errors)
	return nil
}
