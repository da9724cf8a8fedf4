package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsintel/internal/logger"
	"newsintel/internal/normalize"
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest [records.json]",
		Short: "Ingest a batch of scraped articles and run enrichment",
		Long: `Ingest reads a JSON array of scraped article records, normalizes each
into the canonical schema, and drives the accepted articles through
sentiment classification and summarization.

Duplicate articles (same source URL and title) are skipped. A previously
failed article re-appearing in the batch is reset and enriched again.
Malformed records are reported and dropped without affecting the rest of
the batch.

Examples:
  # Ingest one scrape batch
  newsintel ingest scrape-2025-08-29.json

  # Ingest without enrichment output noise
  newsintel ingest batch.json --quiet`,
		Args: cobra.ExactArgs(1),
		Run:  ingestRunFunc,
	}

	ingestCmd.Flags().BoolP("quiet", "q", false, "Only print the batch totals")

	return ingestCmd
}

func ingestRunFunc(cmd *cobra.Command, args []string) {
	path := args[0]
	quiet, _ := cmd.Flags().GetBool("quiet")

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	var records []normalize.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s is not a JSON array of records: %v\n", path, err)
		os.Exit(1)
	}

	logger.Info("Starting ingestion batch", "file", path, "records", len(records))

	a, err := newApp(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	result, err := a.orchestrator.IngestBatch(context.Background(), records)
	if err != nil {
		logger.Error("Batch ingestion failed", err, "file", path)
		fmt.Fprintf(os.Stderr, "Error: batch failed: %v\n", err)
		os.Exit(1)
	}

	for _, merr := range result.Malformed {
		logger.Warn("Rejected malformed record", "error", merr.Error())
	}

	if !quiet {
		for _, merr := range result.Malformed {
			fmt.Printf("⚠️  rejected: %v\n", merr)
		}
		for _, fingerprint := range result.Failed {
			fmt.Printf("❌ failed: %s\n", fingerprint)
		}
	}

	fmt.Printf("📥 Ingested: %d  Skipped: %d  Rejected: %d\n", result.Ingested, result.Skipped, result.Rejected)
	fmt.Printf("✅ Ready: %d  Failed: %d\n", result.Ready, len(result.Failed))

	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
