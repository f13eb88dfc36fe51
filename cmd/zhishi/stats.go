package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhishilabs/zhishi"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local store statistics",
	Long: `Display statistics about the local card cache and session store.

Example:
  zhishi stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := zhishi.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	stats, err := client.Stats()
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	fmt.Println("Local Store Statistics")
	fmt.Println("----------------------")
	fmt.Printf("Cached cards:    %d\n", stats.CardCount)
	fmt.Printf("Sessions:        %d\n", stats.SessionCount)
	fmt.Printf("Cards studied:   %d\n", stats.HistoryCount)
	fmt.Printf("Schema version:  %s\n", stats.SchemaVersion)

	if !stats.CardsUpdatedAt.IsZero() {
		fmt.Printf("Cards updated:   %s (%s ago)\n",
			stats.CardsUpdatedAt.Format(time.RFC3339),
			time.Since(stats.CardsUpdatedAt).Round(time.Minute))
	} else {
		fmt.Println("Cards updated:   never")
	}

	return nil
}
