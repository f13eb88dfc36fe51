package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhishilabs/zhishi"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Generate and print a batch of knowledge cards",
	Long: `Generate a batch of knowledge cards for the given domains and print them.

Cached cards are reused while fresh; without an API key the built-in
fallback set is served.

Example:
  zhishi feed --domains 科学,历史
  zhishi feed --count 3 --refresh`,
	RunE: runFeed,
}

var (
	feedDomains []string
	feedCount   int
	feedRefresh bool
)

func init() {
	feedCmd.Flags().StringSliceVar(&feedDomains, "domains", []string{"科学"}, "Domain labels to generate for")
	feedCmd.Flags().IntVar(&feedCount, "count", zhishi.DefaultCardBatch, "How many cards to request")
	feedCmd.Flags().BoolVar(&feedRefresh, "refresh", false, "Discard the cached feed first")
}

func runFeed(cmd *cobra.Command, args []string) error {
	client, err := zhishi.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	if feedRefresh {
		if err := client.Store().ClearCards(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	feed := client.Feed()
	feed.GenerateInitial(context.Background(), feedDomains, feedCount)

	cards := feed.Cards()
	if len(cards) == 0 {
		return fmt.Errorf("no cards generated")
	}
	if err := feed.LastError(); err != nil {
		fmt.Printf("Note: generation degraded to fallback cards (%v)\n\n", err)
	}

	for i, card := range cards {
		fmt.Printf("[%d] %s\n", i+1, card.Title)
		fmt.Printf("    %s | %s", card.Category, card.Difficulty)
		if len(card.Tags) > 0 {
			fmt.Printf(" | %s", strings.Join(card.Tags, ", "))
		}
		fmt.Println()
		fmt.Printf("    %s\n\n", card.Content)
	}
	return nil
}
