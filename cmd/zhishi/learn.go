package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhishilabs/zhishi"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start an interactive learning session on the current card",
	Long: `Open a multi-agent learning conversation on the card under the feed
cursor. The agents post an opening round; after that, type a question,
pick a numbered option, or type /quit to end the session.

Example:
  zhishi learn
  zhishi learn --card 2`,
	RunE: runLearn,
}

var learnCardIndex int

func init() {
	learnCmd.Flags().IntVar(&learnCardIndex, "card", -1, "Feed position to learn (default: current cursor)")
}

func runLearn(cmd *cobra.Command, args []string) error {
	client, err := zhishi.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	ctx := context.Background()
	feed := client.Feed()
	feed.GenerateInitial(ctx, []string{"科学"}, zhishi.DefaultCardBatch)
	if learnCardIndex >= 0 {
		feed.SetIndex(learnCardIndex)
	}

	card := feed.Current()
	if card == nil {
		return fmt.Errorf("feed is empty")
	}

	fmt.Printf("Learning: %s\n\n", card.Title)

	session := client.Session()
	session.Init(ctx, card)
	printTranscript(session.Messages(), 0)
	shown := len(session.Messages())
	printOptions(session.Options())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "/quit" || input == "/q" {
			break
		}
		if input == "" {
			continue
		}

		options := session.Options()
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
			session.SelectOption(ctx, card, options[n-1])
		} else {
			session.Send(ctx, card, input)
		}

		messages := session.Messages()
		printTranscript(messages, shown)
		shown = len(messages)
		printOptions(session.Options())
	}

	session.End()
	fmt.Println("Session saved.")
	return nil
}

func printTranscript(messages []zhishi.AgentMessage, from int) {
	for _, m := range messages[from:] {
		fmt.Printf("%s: %s\n", m.AgentName, m.Message)
	}
	fmt.Println()
}

func printOptions(options []zhishi.CuriosityOption) {
	if len(options) == 0 {
		return
	}
	fmt.Println("Continue with:")
	for i, opt := range options {
		fmt.Printf("  %d. %s", i+1, opt.Text)
		if opt.Curiosity != "" {
			fmt.Printf(" (%s)", opt.Curiosity)
		}
		fmt.Println()
	}
	fmt.Println()
}
