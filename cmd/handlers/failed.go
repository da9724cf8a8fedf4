package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewFailedCmd creates the failed command
func NewFailedCmd() *cobra.Command {
	failedCmd := &cobra.Command{
		Use:   "failed",
		Short: "List articles that exhausted their enrichment retries",
		Long: `Failed lists articles stuck in the failed state together with the stage
that gave up. Re-ingesting the same record resets a failed article and
runs it through enrichment again.`,
		Run: failedRunFunc,
	}

	failedCmd.Flags().IntP("limit", "n", 50, "Maximum articles to show")

	return failedCmd
}

func failedRunFunc(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	failed, err := a.service.FailedArticles(context.Background(), limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(failed) == 0 {
		fmt.Println("✅ No failed articles")
		return
	}

	for _, article := range failed {
		fmt.Printf("❌ %s  stage=%s  %s (%s)\n",
			article.Fingerprint[:12], article.FailedStage, article.Title, article.Source)
	}
	fmt.Printf("\n%d failed article(s)\n", len(failed))
}
