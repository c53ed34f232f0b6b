package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vazimax/BuyMin/config"
	"github.com/Vazimax/BuyMin/database"
	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/llm"
	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/repository"
)

var (
	configPath string
	cfg        *config.Config
)

// newStructurer builds the chunk structurer for ingest; tests swap it out.
var newStructurer = func(c config.LLMConfig) (ingest.Structurer, error) {
	return llm.NewOpenAI(c, nil)
}

var rootCmd = &cobra.Command{
	Use:   "buymin-cli",
	Short: "Grocery price comparison tools",
	Long: `Command-line access to the BuyMin price database.

Migrate the schema, ingest supermarket brochures through the LLM pipeline,
search prices and export them to Excel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
}

// openStore connects to the configured database and migrates it. The
// returned func closes the connection.
func openStore(ctx context.Context) (*repository.PriceRepository, func(), error) {
	db, err := database.Open(ctx, cfg.Database, logger.L())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return repository.NewPriceRepository(db), func() { database.Close(db) }, nil
}

