package main

import (
	"fmt"
	"os"
	"path/filepath"

	"comet/internal/config"
	"comet/internal/engine"
	"comet/internal/logging"
	"comet/internal/rules"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	rulesPaths []string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "comet",
	Short: "comet - Shortcut Registry Engine",
	Long: `comet maintains a registry of verified shortcuts: pattern -> action
pairs backed by content-hash citations. Every execution is recorded in an
append-only log, and the registry can be exported as a versioned snapshot.

Shortcuts are defined in YAML rule files (see 'comet init'), loaded at
startup and optionally hot-reloaded with 'comet watch'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := resolveWorkspace()
		if err := logging.Initialize(ws); err != nil {
			return fmt.Errorf("failed to initialize file logging: %w", err)
		}
		if err := logging.InitAudit(); err != nil {
			logger.Warn("audit log unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringSliceVar(&rulesPaths, "rules", nil, "Rule file or directory (overrides config; repeatable)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(citeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the effective workspace directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// bootEngine loads the config, creates an engine and loads the configured
// rule paths into it. Missing default rule paths are tolerated; paths given
// explicitly with --rules must exist.
func bootEngine() (*engine.Engine, *config.Config, error) {
	ws := resolveWorkspace()
	cfg, err := config.Load(ws)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	eng := engine.New()
	loader := rules.NewLoader()
	logging.Boot("engine %s booted in %s", eng.ID(), ws)

	paths := rulesPaths
	explicit := len(paths) > 0
	if !explicit {
		paths = resolveRulePaths(ws, cfg)
	}

	total := 0
	for _, path := range paths {
		if !explicit {
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				logging.BootDebug("rule path %s not present, skipping", path)
				continue
			}
		}
		registered, loadErr := loader.LoadPath(path, eng)
		if loadErr != nil {
			return nil, nil, loadErr
		}
		total += registered
	}

	logger.Debug("engine booted",
		zap.String("workspace", ws),
		zap.Int("shortcuts", total))
	return eng, cfg, nil
}

// resolveRulePaths makes the configured rule paths workspace-relative.
func resolveRulePaths(ws string, cfg *config.Config) []string {
	paths := make([]string, 0, len(cfg.Rules.Paths))
	for _, p := range cfg.Rules.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(ws, p)
		}
		paths = append(paths, p)
	}
	return paths
}
