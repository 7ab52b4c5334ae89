package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	contextPairs []string
	contextJSON  string
)

// runCmd executes a registered shortcut and prints the execution record
var runCmd = &cobra.Command{
	Use:   "run [shortcut-id]",
	Short: "Execute a registered shortcut",
	Long: `Looks up a shortcut by id and records an execution. The resulting
execution record is printed as JSON.

Context can be attached as key=value pairs or as a JSON object:
  comet run github_notifications --context user=alice --context page=inbox
  comet run github_notifications --context-json '{"user":"alice","depth":2}'`,
	Args: cobra.ExactArgs(1),
	RunE: runShortcut,
}

func init() {
	runCmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context entry as key=value (repeatable)")
	runCmd.Flags().StringVar(&contextJSON, "context-json", "", "Context as a JSON object (overrides --context)")
}

func runShortcut(cmd *cobra.Command, args []string) error {
	id := args[0]

	execCtx, err := buildContext()
	if err != nil {
		return err
	}

	eng, _, err := bootEngine()
	if err != nil {
		return err
	}

	logger.Info("Executing shortcut", zap.String("id", id))

	rec, ok := eng.Execute(id, execCtx)
	if !ok {
		return fmt.Errorf("shortcut %q is not registered", id)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// buildContext assembles the execution context from the context flags.
func buildContext() (map[string]any, error) {
	if contextJSON != "" {
		ctx := map[string]any{}
		if err := json.Unmarshal([]byte(contextJSON), &ctx); err != nil {
			return nil, fmt.Errorf("invalid --context-json: %w", err)
		}
		return ctx, nil
	}

	ctx := map[string]any{}
	for _, pair := range contextPairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --context entry %q (want key=value)", pair)
		}
		ctx[key] = value
	}
	return ctx, nil
}
