package main

import (
	"encoding/json"
	"fmt"

	"comet/internal/engine"

	"github.com/spf13/cobra"
)

var citeMethod string

// citeCmd builds a citation for a piece of content
var citeCmd = &cobra.Command{
	Use:   "cite [source-id] [content]",
	Short: "Create a verified citation for content",
	Long: `Digests the content and prints a complete citation: source id,
content hash, verification method and timestamp. The output can be pasted
into a rule file's citations list (use content_hash).

Example:
  comet cite doc_42 "the cited paragraph"`,
	Args: cobra.ExactArgs(2),
	RunE: createCitation,
}

func init() {
	citeCmd.Flags().StringVar(&citeMethod, "method", engine.DefaultMethod, "Verification method label")
}

func createCitation(cmd *cobra.Command, args []string) error {
	citation, err := engine.CreateCitationWithMethod(args[0], args[1], citeMethod)
	if err != nil {
		return fmt.Errorf("failed to create citation: %w", err)
	}

	out, err := json.MarshalIndent(citation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode citation: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
