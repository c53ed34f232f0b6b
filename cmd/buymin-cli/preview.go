package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Vazimax/BuyMin/extractor"
	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/logger"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Show the records a brochure would produce",
	Long: `Extracts and chunks a brochure, sends the chunks to the LLM and prints the
normalized records. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	pages, err := extractor.Extract(args[0])
	if err != nil {
		return err
	}
	chunks := ingest.SplitIntoChunks(extractor.Join(pages), cfg.LLM.MaxChunkSize)
	cmd.Printf("=== %s: %d pages, %d chunks ===\n", args[0], len(pages), len(chunks))

	structurer, err := newStructurer(cfg.LLM)
	if err != nil {
		return err
	}

	now := time.Now()
	for i, chunk := range chunks {
		candidates, err := structurer.ExtractRecords(cmd.Context(), chunk)
		if err != nil {
			cmd.Printf("\nChunk %d: error: %v\n", i+1, err)
			continue
		}
		cmd.Printf("\nChunk %d: %d candidates\n", i+1, len(candidates))
		for j, raw := range candidates {
			rec, err := ingest.NormalizeRecord(raw, now)
			if err != nil {
				logger.Debug("Preview skipped candidate", "chunk", i+1, "index", j, "error", err)
				cmd.Printf("  skipped: %v\n", err)
				continue
			}
			cmd.Printf("  %-30s %-16s %8s  %s\n", rec.Name, rec.Category, rec.Price.StringFixed(2), rec.Supermarket)
		}
	}
	return nil
}
