package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewSentimentCmd creates the sentiment command
func NewSentimentCmd() *cobra.Command {
	sentimentCmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Show the per-source sentiment distribution",
		Long: `Sentiment aggregates classified articles by source and shows how each
source's coverage skews: counts per label and the mean signed confidence
(-1 all-negative to +1 all-positive).`,
		Run: sentimentRunFunc,
	}

	sentimentCmd.Flags().StringP("format", "f", "terminal", "Output format: terminal, json")

	return sentimentCmd
}

func sentimentRunFunc(cmd *cobra.Command, args []string) {
	format, _ := cmd.Flags().GetString("format")

	a, err := newApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	sources, err := a.service.SourceSentiment(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if format == "json" {
		printJSON(sources)
		return
	}

	if len(sources) == 0 {
		fmt.Println("No classified articles yet")
		return
	}

	fmt.Printf("%-20s %8s %8s %8s %8s %8s\n", "SOURCE", "TOTAL", "POS", "NEG", "NEU", "SCORE")
	for _, source := range sources {
		fmt.Printf("%-20s %8d %8d %8d %8d %8.3f\n",
			source.Source, source.ArticleCount, source.PositiveCount,
			source.NegativeCount, source.NeutralCount, source.AverageScore)
	}
}
