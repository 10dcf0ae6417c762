package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vocab-amas/internal/config"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and change whitelisted tunable parameters (spec.md §6)",
	}
	cmd.AddCommand(newParamsListCmd(), newParamsGetCmd(), newParamsSetCmd(), newParamsHistoryCmd())
	return cmd
}

func newParamsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every whitelisted parameter key and its current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			for key := range config.Whitelist {
				rec, err := a.params.Get(ctx, string(key))
				if err != nil {
					return fmt.Errorf("amasctl params list: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %v (v%d)\n", rec.Key, rec.Value, rec.Version)
			}
			return nil
		},
	}
}

func newParamsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one parameter's current value and change history metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.params.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("amasctl params get: %w", err)
			}
			return printJSON(cmd, rec)
		},
	}
	return cmd
}

func newParamsSetCmd() *cobra.Command {
	var (
		changedBy string
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a whitelisted parameter to a new value, recording an audit row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			var value float64
			if _, err := fmt.Sscanf(args[1], "%g", &value); err != nil {
				return fmt.Errorf("amasctl params set: value %q is not a number: %w", args[1], err)
			}

			rec, err := a.params.Update(context.Background(), args[0], value, changedBy, reason, "")
			if err != nil {
				return fmt.Errorf("amasctl params set: %w", err)
			}
			return printJSON(cmd, rec)
		},
	}

	cmd.Flags().StringVar(&changedBy, "changed-by", "operator-cli", "who is making this change, recorded in the audit history")
	cmd.Flags().StringVar(&reason, "reason", "manual override", "why this change is being made, recorded in the audit history")
	return cmd
}

func newParamsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history KEY",
		Short: "Print a parameter's full change history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			hist, err := a.params.History(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("amasctl params history: %w", err)
			}
			return printJSON(cmd, hist)
		},
	}
}
