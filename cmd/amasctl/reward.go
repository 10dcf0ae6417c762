package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Enqueue or deliver delayed rewards for the bandit members",
	}
	cmd.AddCommand(newRewardEnqueueCmd(), newRewardDeliverCmd())
	return cmd
}

func newRewardEnqueueCmd() *cobra.Command {
	var (
		userID         string
		answerRecordID string
		sessionID      string
		decisionID     string
		reward         float64
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Buffer a graded answer's reward for delayed delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" || answerRecordID == "" || decisionID == "" {
				return fmt.Errorf("amasctl reward enqueue: --user, --answer, and --decision are required")
			}
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.EnqueueReward(context.Background(), userID, answerRecordID, sessionID, decisionID, reward); err != nil {
				return fmt.Errorf("amasctl reward enqueue: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "enqueued")
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&answerRecordID, "answer", "", "answer record id (required)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&decisionID, "decision", "", "decision id the answer was graded against (required)")
	cmd.Flags().Float64Var(&reward, "value", 0, "reward value, typically in [0,1]")

	return cmd
}

func newRewardDeliverCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Apply every due delayed reward to the bandit members' posteriors",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			delivered, err := a.engine.DeliverDueRewards(context.Background(), time.Now(), limit)
			if err != nil {
				return fmt.Errorf("amasctl reward deliver: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered %d reward(s)\n", delivered)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of due rewards to deliver this tick")
	return cmd
}
