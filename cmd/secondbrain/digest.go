package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/secondbrain/internal/classify"
)

var digestCmd = &cobra.Command{
	Use:   "digest <morning|evening|weekly>",
	Short: "Send a digest DM immediately",
	Long: `Send a digest to the configured Slack user without waiting for the
scheduled trigger.

Examples:
  # Send the morning briefing now
  secondbrain digest morning

  # Send the weekly review now
  secondbrain digest weekly`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"morning", "evening", "weekly"},
	RunE:      runDigest,
}

func digestKindFromArg(arg string) (classify.DigestKind, error) {
	switch arg {
	case "morning":
		return classify.DigestMorning, nil
	case "evening":
		return classify.DigestEvening, nil
	case "weekly":
		return classify.DigestWeekly, nil
	default:
		return "", fmt.Errorf("unknown digest kind %q (expected morning, evening, or weekly)", arg)
	}
}

func runDigest(cmd *cobra.Command, args []string) error {
	kind, err := digestKindFromArg(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := a.generator.Send(ctx, kind); err != nil {
		return fmt.Errorf("sending %s digest: %w", kind, err)
	}

	fmt.Printf("%s digest sent\n", kind)
	return nil
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-tags",
	Short: "Apply inferred tags to untagged active items",
	Long: `Scan all active items, infer tags from their titles, and write the
tags back to Notion. Items that already have tags are left alone. Prints
the resulting stats as JSON.`,
	RunE: runBackfill,
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	stats, err := a.assistant.ApplyBackfill(ctx)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(stats)
}
