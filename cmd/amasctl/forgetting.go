package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newForgettingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan-forgetting",
		Short: "Run one forgetting-risk alert sweep, or list a user's pending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.forgetting.Scan(context.Background(), time.Now())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.AddCommand(newForgettingListCmd())
	return cmd
}

func newForgettingListCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's currently-pending forgetting alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("amasctl scan-forgetting list: --user is required")
			}
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			pending, err := a.alerts.PendingAlerts(context.Background(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, pending)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	return cmd
}
