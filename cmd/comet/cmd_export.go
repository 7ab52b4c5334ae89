package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut string

// exportCmd exports the registry snapshot
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the registry as a versioned snapshot",
	Long: `Loads the configured rule files and prints the registry snapshot:
schema version, a reduced view per shortcut (citation counts, not the
citations themselves) and the total execution count.`,
	RunE: exportSnapshot,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the snapshot to a file instead of stdout")
}

func exportSnapshot(cmd *cobra.Command, args []string) error {
	eng, _, err := bootEngine()
	if err != nil {
		return err
	}

	snap := eng.ExportSnapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		logger.Info("Snapshot written",
			zap.String("path", exportOut),
			zap.Int("shortcuts", len(snap.Shortcuts)))
		return nil
	}

	fmt.Println(string(data))
	return nil
}
