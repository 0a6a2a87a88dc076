package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func runCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one classification batch",
		Long:  `Select up to --limit eligible photos, newest first, and classify each one in turn.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", limit)
			}

			stats, err := a.domain.Orchestrator.RunBatch(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum photos to process (0 uses the configured batch limit)")

	return cmd
}

func classifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [photo-id]",
		Short: "Classify and persist one photo",
		Args:  photoIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.domain.Orchestrator.Process(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func previewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [photo-id]",
		Short: "Classify one photo without saving the result",
		Args:  photoIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.domain.Orchestrator.Preview(cmd.Context(), uuid.MustParse(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func photoIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("invalid photo id %q: %w", args[0], err)
	}
	return nil
}
