package main

import (
	"fmt"
	"os"
	"path/filepath"

	"comet/internal/config"

	"github.com/spf13/cobra"
)

// initCmd scaffolds a workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a comet workspace",
	Long: `Creates .comet/config.yaml with defaults and an empty
.comet/rules/ directory for shortcut rule files. Refuses to overwrite an
existing config.`,
	RunE: initWorkspace,
}

func initWorkspace(cmd *cobra.Command, args []string) error {
	ws := resolveWorkspace()

	cfgPath := config.Path(ws)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("workspace already initialized: %s exists", cfgPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(ws); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	rulesDir := filepath.Join(ws, ".comet", "rules")
	if err := os.MkdirAll(rulesDir, 0755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	fmt.Printf("Initialized comet workspace in %s\n", ws)
	fmt.Printf("  config: %s\n", cfgPath)
	fmt.Printf("  rules:  %s\n", rulesDir)
	return nil
}
