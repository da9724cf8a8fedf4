package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsintel/internal/store"
)

// NewFeedCmd creates the feed command
func NewFeedCmd() *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Show enriched articles, optionally ranked for a user",
		Long: `Feed lists fully enriched articles, newest first. With --user the feed
is ranked by the hybrid recommender: content affinity against the user's
stated preferences blended with the behavior of similar readers.

A user without any interaction history gets a purely content-based
ranking; if the profile store is unreachable the feed degrades to recency
order instead of failing.

Examples:
  # Latest enriched articles
  newsintel feed --limit 20

  # Personalized feed for one user, sports only
  newsintel feed --user alice --category sports

  # JSON output for the app backend
  newsintel feed --user alice --format json`,
		Run: feedRunFunc,
	}

	feedCmd.Flags().StringP("user", "u", "", "Rank the feed for this user")
	feedCmd.Flags().String("category", "", "Filter by editorial category")
	feedCmd.Flags().String("country", "", "Filter by source country")
	feedCmd.Flags().String("language", "", "Filter by language code")
	feedCmd.Flags().IntP("limit", "n", 20, "Maximum articles to show")
	feedCmd.Flags().StringP("format", "f", "terminal", "Output format: terminal, json")

	return feedCmd
}

func feedRunFunc(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	filter := store.FeedFilter{}
	filter.Category, _ = cmd.Flags().GetString("category")
	filter.Country, _ = cmd.Flags().GetString("country")
	filter.Language, _ = cmd.Flags().GetString("language")

	if format != "terminal" && format != "json" {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, expected terminal or json\n", format)
		os.Exit(1)
	}

	a, err := newApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	if userID == "" {
		articles, err := a.service.ReadyArticles(ctx, filter, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if format == "json" {
			printJSON(articles)
			return
		}
		for _, article := range articles {
			label := "•"
			if article.Sentiment != nil {
				label = string(article.Sentiment.Label)
			}
			fmt.Printf("📰 [%s] %s (%s, %s)\n", label, article.Title, article.Source, article.PublishedAt.Format("2006-01-02"))
			fmt.Printf("   %s\n\n", article.Summary)
		}
		return
	}

	ranked, err := a.service.Feed(ctx, userID, filter, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if format == "json" {
		printJSON(ranked)
		return
	}
	for i, entry := range ranked {
		fmt.Printf("%2d. (%.3f) %s (%s, %s)\n", i+1, entry.Score.Value, entry.Article.Title, entry.Article.Source, entry.Article.Category)
		fmt.Printf("    %s\n\n", entry.Article.Summary)
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", data)
}
