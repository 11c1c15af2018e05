package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch candles and write them as CSV",
	Long: `Export fetches the configured symbol and timeframe and writes the candles
as CSV to a file or stdout.

Examples:
  candleview export > btc_1h.csv
  candleview export --out data/btc_1h.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var exportOut string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output CSV file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	fetcher, err := newFetcher()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	samples, err := fetcher.FetchCandles(ctx, cfg.Exchange.Symbol, cfg.Exchange.Timeframe, cfg.Exchange.Limit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}

	if exportOut == "" {
		return gocsv.Marshal(&samples, os.Stdout)
	}
	file, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	defer file.Close()
	if err := gocsv.MarshalFile(&samples, file); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d candles to %s\n", len(samples), exportOut)
	return nil
}
