package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vocab-amas/internal/advisor"
)

func newAdviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Run and manage the weekly LLM Advisor Loop (spec.md §4.10)",
	}
	cmd.AddCommand(newAdviseRunCmd(), newAdviseListCmd(), newAdviseExportCmd(), newAdviseApproveCmd())
	return cmd
}

func newAdviseRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Compute this week's usage metrics and propose parameter tuning suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			sug, err := a.advisor.RunWeekly(context.Background(), time.Now().UTC())
			if err != nil {
				return fmt.Errorf("amasctl advise run: %w", err)
			}
			return printJSON(cmd, sug)
		},
	}
}

func newAdviseListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent advisor suggestion batches, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.suggestions.List(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("amasctl advise list: %w", err)
			}
			return printJSON(cmd, list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of suggestion batches to show")
	return cmd
}

func newAdviseExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export SUGGESTION_ID",
		Short: "Export a pending suggestion batch as YAML for offline operator review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			sug, err := a.suggestions.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("amasctl advise export: %w", err)
			}
			data, err := advisor.ExportYAML(sug)
			if err != nil {
				return fmt.Errorf("amasctl advise export: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	return cmd
}

func newAdviseApproveCmd() *cobra.Command {
	var (
		itemIDs   string
		changedBy string
	)
	cmd := &cobra.Command{
		Use:   "approve SUGGESTION_ID",
		Short: "Apply a comma-separated subset of a suggestion's items to the Parameter Store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if itemIDs == "" {
				return fmt.Errorf("amasctl advise approve: --items is required (comma-separated suggestion item ids)")
			}
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			sug, err := a.advisor.Approve(context.Background(), args[0], strings.Split(itemIDs, ","), changedBy)
			if err != nil {
				return fmt.Errorf("amasctl advise approve: %w", err)
			}
			return printJSON(cmd, sug)
		},
	}
	cmd.Flags().StringVar(&itemIDs, "items", "", "comma-separated suggestion item ids to approve (required)")
	cmd.Flags().StringVar(&changedBy, "changed-by", "operator-cli", "who approved this change, recorded in the audit history")
	return cmd
}
