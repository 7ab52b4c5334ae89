package main

import (
	"fmt"
	"io"
	"os"

	"comet/internal/engine"

	"github.com/spf13/cobra"
)

// hashCmd digests content the way citations do
var hashCmd = &cobra.Command{
	Use:   "hash [content]",
	Short: "Print the sha256 digest of content",
	Long: `Computes the 64-character hex sha256 digest used for citation
content hashes. Reads from stdin when no argument is given:

  comet hash "optimization pattern text"
  cat doc.md | comet hash`,
	Args: cobra.MaximumNArgs(1),
	RunE: hashContent,
}

func hashContent(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 1 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	fmt.Println(engine.Digest(content))
	return nil
}
