package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/seed"
)

var (
	seedFile string
	dryRun   bool

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load team profiles and practice areas into the datastore",
		Long: `seed reads a YAML document with "team" and "services" lists and writes
them to the configured DATABASE_URL in a single transaction.

Entries with an id replace the existing row, so the same file can be
applied repeatedly.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSeed,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed document path")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the document without writing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	doc, err := seed.Parse(data)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d team members, %d services\n", seedFile, len(doc.Team), len(doc.Services))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging)

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	sum, err := seed.Apply(cmd.Context(), db, doc)
	if err != nil {
		return err
	}
	logger.Info().Int("team", sum.Team).Int("services", sum.Services).Str("file", seedFile).Msg("seed applied")
	return nil
}
