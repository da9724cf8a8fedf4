package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsintel/internal/logger"
)

// NewEnrichCmd creates the enrich command
func NewEnrichCmd() *cobra.Command {
	enrichCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Resume enrichment of articles stranded mid-pipeline",
		Long: `Enrich picks up articles that were ingested but never reached the ready
state, for example after a crash or an AI outage, and drives them the
rest of the way through classification and summarization.

Failed articles are not resumed; they re-enter the pipeline only when the
same record is ingested again.`,
		Run: enrichRunFunc,
	}

	enrichCmd.Flags().IntP("limit", "n", 100, "Maximum articles to resume per state")

	return enrichCmd
}

func enrichRunFunc(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	logger.Info("Resuming pending enrichment", "limit", limit)

	ready, failed, err := a.orchestrator.ResumePending(context.Background(), limit)
	if err != nil {
		logger.Error("Failed to resume enrichment", err, "limit", limit)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, fingerprint := range failed {
		fmt.Printf("❌ failed: %s\n", fingerprint)
	}
	fmt.Printf("✅ Ready: %d  Failed: %d\n", ready, len(failed))
}
