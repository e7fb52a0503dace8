// Secondbrain is a Slack-based personal capture assistant backed by Notion.
//
// It receives Slack events over HTTP, classifies captured thoughts with
// OpenAI, files them into Notion databases, and sends scheduled digests.
//
// Usage:
//
//	# Start the server
//	secondbrain serve --config config.yaml
//
//	# Send a digest immediately
//	secondbrain digest morning
//
//	# Apply inferred tags to untagged items
//	secondbrain backfill-tags
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file; environment variables
	// override it either way.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "secondbrain",
	Short: "Slack capture assistant backed by Notion",
	Long: `secondbrain turns a Slack channel into a personal inbox: messages and
voice notes are classified, filed into Notion databases, and followed up
through threaded conversations. Scheduled digests summarize what is due.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(backfillCmd)
}
