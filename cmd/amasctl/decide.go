package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vocab-amas/internal/engine"
	"vocab-amas/internal/types"
)

func newDecideCmd() *cobra.Command {
	var (
		userID         string
		correct        bool
		responseTimeMs int64
		targetCount    int
		wordbooks      string
		exclude        string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run one decision pipeline pass for a user and print the resulting trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("amasctl decide: --user is required")
			}

			a, err := loadAndBuild()
			if err != nil {
				return err
			}
			defer a.Close()

			var books []string
			if wordbooks != "" {
				books = strings.Split(wordbooks, ",")
			}
			var excludeIDs []string
			if exclude != "" {
				excludeIDs = strings.Split(exclude, ",")
			}

			resp, err := a.engine.Decide(context.Background(), engine.Request{
				UserID: userID,
				Event: types.RawEvent{
					IsCorrect:      correct,
					ResponseTimeMs: responseTimeMs,
					Timestamp:      time.Now(),
				},
				TargetCount: targetCount,
				WordbookIDs: books,
				ExcludeIDs:  excludeIDs,
			})
			if err != nil {
				return fmt.Errorf("amasctl decide: %w", err)
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().BoolVar(&correct, "correct", true, "whether the triggering event was answered correctly")
	cmd.Flags().Int64Var(&responseTimeMs, "response-time-ms", 1200, "triggering event's response time in milliseconds")
	cmd.Flags().IntVar(&targetCount, "target-count", 10, "how many words the Word Selector should return")
	cmd.Flags().StringVar(&wordbooks, "wordbooks", "", "comma-separated wordbook ids to draw new words from")
	cmd.Flags().StringVar(&exclude, "exclude", "", "comma-separated word ids already shown this session, never re-selected")

	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
