package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"CandleView/internal/chart"
	"CandleView/internal/collector"
	"CandleView/internal/ledger"
	"CandleView/internal/marker"
	"CandleView/internal/model"
	"CandleView/internal/notifier"
	"CandleView/internal/servertime"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch candles once and write a chart",
	Long: `Render fetches the configured symbol once, draws it with the ledger's trade
markers and writes the chart.

Examples:
  candleview render
  candleview render --mode line --out btc.png`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

var (
	renderOut  string
	renderMode string
)

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file; the extension picks svg or png (default <output_dir>/chart.<format>)")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", "", "candle or line (default from config)")
}

func runRender(cmd *cobra.Command, args []string) error {
	fetcher, err := newFetcher()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	col := collector.NewCollector(fetcher, cfg.Exchange.Symbol, cfg.Exchange.Timeframe, cfg.Exchange.Limit, 0)
	snap, ok := col.Collect(ctx)
	if !ok {
		return fmt.Errorf("fetch %s from %s: %w", cfg.Exchange.Symbol, fetcher.Name(), collector.ErrNoData)
	}

	modeName := cfg.Chart.Mode
	if renderMode != "" {
		modeName = renderMode
	}
	mode, err := chart.ParseMode(modeName)
	if err != nil {
		return err
	}

	out := renderOut
	format, _ := chart.ParseFormat(cfg.Chart.Format)
	if out == "" {
		out = filepath.Join(cfg.Chart.OutputDir, "chart."+string(format))
	} else if ext := filepath.Ext(out); ext != "" {
		if format, err = chart.ParseFormat(ext[1:]); err != nil {
			return err
		}
	}

	canvas := chart.NewCanvas(cfg.Chart.Width, cfg.Chart.Height, cfg.Chart.BodyHalfWidth)
	canvas.SetMode(mode)
	canvas.Update(snap.Samples)
	canvas.SetPriceLabel(notifier.FormatPrice(cfg.Exchange.Symbol, snap.Price))
	clock := servertime.NewFetcher(cfg.TimeSource.URL, cfg.TimeSource.Timezone, cfg.Proxy)
	canvas.SetTimeLabel(servertime.Label(clock.Now(ctx)))

	markers, err := ledgerMarkers(snap.Samples)
	if err != nil {
		log.Warnf("trade markers: %v", err)
	}
	canvas.SetMarkers(markers)

	if err := canvas.WriteFile(out, format); err != nil {
		return err
	}
	fmt.Printf("wrote %d candles to %s\n", len(snap.Samples), out)
	return nil
}

func ledgerMarkers(samples []model.OHLCSample) ([]marker.Marker, error) {
	lm, err := ledger.Load(cfg.Ledger.StateFile, cfg.Ledger.InitialBalance)
	if err != nil {
		return nil, err
	}
	return marker.FromEvents(samples, lm.EventsFor(model.BaseCoin(cfg.Exchange.Symbol)))
}
