package cmd

import (
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"CandleView/internal/ledger"
	"CandleView/internal/model"
	"CandleView/internal/notifier"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Open, close and list paper trades",
	Long: `Trade manages the simulated ledger shown as markers on the chart.

Examples:
  candleview trade open long BTC 0.5 65000 --leverage 2
  candleview trade close 01J9Z3K5R8 67000
  candleview trade list --price 66000`,
}

var tradeOpenCmd = &cobra.Command{
	Use:   "open <long|short> <coin> <quantity> <price>",
	Short: "Open a position",
	Args:  cobra.ExactArgs(4),
	RunE:  runTradeOpen,
}

var tradeCloseCmd = &cobra.Command{
	Use:   "close <id> <price>",
	Short: "Close a position",
	Args:  cobra.ExactArgs(2),
	RunE:  runTradeClose,
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the trade history table",
	Args:  cobra.NoArgs,
	RunE:  runTradeList,
}

var (
	tradeLeverage float64
	tradePrice    float64
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeOpenCmd, tradeCloseCmd, tradeListCmd)
	tradeOpenCmd.Flags().Float64VarP(&tradeLeverage, "leverage", "l", 1, "position leverage")
	tradeListCmd.Flags().Float64VarP(&tradePrice, "price", "p", 0, "current price of the configured coin for unrealized P/L")
}

func openLedger() (*ledger.Manager, error) {
	return ledger.NewManager(cfg.Ledger.StateFile, cfg.Ledger.InitialBalance)
}

func runTradeOpen(cmd *cobra.Command, args []string) error {
	side, err := model.ParseSide(args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[2], err)
	}
	price, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[3], err)
	}

	lm, err := openLedger()
	if err != nil {
		return err
	}
	t, err := lm.Open(side, args[1], qty, price, tradeLeverage, time.Now())
	if err != nil {
		return err
	}
	record(t)
	fmt.Printf("opened %s %s %g @ %g (id %s)\n", t.Side, t.Coin, t.Quantity, t.EntryPrice, t.ID)
	return nil
}

func runTradeClose(cmd *cobra.Command, args []string) error {
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[1], err)
	}

	lm, err := openLedger()
	if err != nil {
		return err
	}
	t, err := lm.Close(args[0], price, time.Now())
	if err != nil {
		return err
	}
	record(t)
	fmt.Printf("closed %s %s @ %g, realized %+.2f\n", t.ID, t.Coin, t.ExitPrice, t.RealizedPL)
	return nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	lm, err := ledger.Load(cfg.Ledger.StateFile, cfg.Ledger.InitialBalance)
	if err != nil {
		return err
	}
	prices := map[string]float64{}
	if tradePrice > 0 {
		prices[model.BaseCoin(cfg.Exchange.Symbol)] = tradePrice
	}
	rows := lm.Rows(prices)
	if len(rows) == 0 {
		fmt.Println("no trades")
		return nil
	}
	fmt.Print(notifier.FormatTradeHistory(rows))
	fmt.Printf("balance: %.2f  return: %+.2f%%\n", lm.GetState().Balance, lm.TotalReturnPct(prices))
	return nil
}

func record(t model.Trade) {
	rec := newRecorder()
	defer rec.Close()
	if err := rec.RecordTrade(t); err != nil {
		log.Warnf("record trade: %v", err)
	}
}
