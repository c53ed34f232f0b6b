package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/llm"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load price records from a JSON file",
	Long: `Reads a JSON array of records with the keys name, category, price,
supermarket and optionally date, and records them without calling the LLM.
Files ending in .gz are decompressed first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := args[0]
	cmd.Printf("Loading seed data from %s...\n", path)

	records, err := readSeedFile(path)
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := ingest.NewUpserter(repo, nil).Apply(cmd.Context(), records)
	cmd.Printf("Seeded %d prices, skipped %d records.\n", res.Applied, res.Skipped)
	return err
}

func readSeedFile(path string) ([]llm.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gr.Close()
		r = gr
	}

	var records []llm.Candidate
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	return records, nil
}
