package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Vazimax/BuyMin/export"
	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest brochures into the price database",
	Long: `Stores each brochure (PDF, HTML or text) under the media root, extracts
its text, asks the configured LLM to structure it and records the prices.
Files are processed one after another.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search product prices",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export matching prices to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	searchSupermarket uint
	searchMinPrice    string
	searchMaxPrice    string
	searchSort        string
	searchPage        int
	searchJSON        bool
	exportOutput      string
)

func init() {
	for _, c := range []*cobra.Command{searchCmd, exportCmd} {
		c.Flags().UintVar(&searchSupermarket, "supermarket", 0, "only prices from this supermarket id")
		c.Flags().StringVar(&searchMinPrice, "min-price", "", "inclusive lower price bound")
		c.Flags().StringVar(&searchMaxPrice, "max-price", "", "inclusive upper price bound")
		c.Flags().StringVar(&searchSort, "sort", repository.SortAsc, "price order: asc or desc")
	}
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the page as JSON")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "prices.xlsx", "workbook path")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	cmd.Println("Database migrated.")
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	repo, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	structurer, err := newStructurer(cfg.LLM)
	if err != nil {
		return err
	}
	pipeline := ingest.NewPipeline(ingest.NewLoader(cfg.Storage.MediaRoot), structurer, repo, cfg.LLM.MaxChunkSize, nil)

	var failed int
	for _, path := range args {
		report, err := ingestFile(cmd, pipeline, path)
		if err != nil {
			logger.Error("Ingestion failed", "file", path, "error", err)
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("%s: %d pages, %d chunks (%d failed), %d prices recorded, %d records skipped\n",
			path, report.Pages, report.Chunks, report.FailedChunks, report.Applied, report.Skipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, pipeline *ingest.Pipeline, path string) (*ingest.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pipeline.Run(cmd.Context(), filepath.Base(path), f)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := searchQuery(args[0])
	if err != nil {
		return err
	}
	q.Page = searchPage

	repo, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	page, err := repo.Search(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(page.Items) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for _, item := range page.Items {
		cmd.Printf("%s (%s)\n", item.Product.Name, item.Product.Category)
		for _, p := range item.Prices {
			supermarket := ""
			if p.Supermarket != nil {
				supermarket = p.Supermarket.Name
			}
			cmd.Printf("  %8s  %-24s %s\n", p.Price.StringFixed(2), supermarket, p.ObservedAt.Format("2006-01-02"))
		}
	}
	cmd.Printf("Page %d of %d (%d products)\n", page.Number, page.TotalPages, page.TotalItems)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	q, err := searchQuery(args[0])
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := export.NewService(repo, nil).ExportXLSX(cmd.Context(), q)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOutput, err)
	}
	cmd.Printf("Wrote %s\n", exportOutput)
	return nil
}

func searchQuery(query string) (repository.SearchQuery, error) {
	q := repository.SearchQuery{
		Query: query,
		Sort:  repository.NormalizeSort(searchSort),
	}
	if searchSupermarket != 0 {
		id := searchSupermarket
		q.SupermarketID = &id
	}
	var err error
	if q.MinPrice, err = priceFlag("min-price", searchMinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceFlag("max-price", searchMaxPrice); err != nil {
		return q, err
	}
	return q, nil
}

func priceFlag(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, errors.New("invalid --" + name + ": " + value)
	}
	return &d, nil
}
