package notifier

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"CandleView/internal/model"
	"CandleView/internal/profit"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders the live price label, e.g. "BTC/USDT: 12,345.6".
func FormatPrice(symbol string, price float64) string {
	return fmt.Sprintf("%s: %s", symbol, printer.Sprintf("%.1f", price))
}

// FormatTradeHistory renders the trade history rows as a text table.
func FormatTradeHistory(rows []model.TradeRow) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Coin", "Qty", "Liq. Price", "Unrealized", "Realized"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for _, r := range rows {
		liq := "-"
		if r.LiqPrice > 0 {
			liq = printer.Sprintf("%.2f", r.LiqPrice)
		}
		table.Append([]string{
			r.Coin,
			fmt.Sprintf("%.8f", r.Quantity),
			liq,
			fmt.Sprintf("%+.2f%%", r.UnrealizedPct),
			fmt.Sprintf("%+.2f", r.RealizedPL),
		})
	}

	table.Render()
	return display.String()
}

// FormatProfitRates renders the six profit-rate rows as a text table.
func FormatProfitRates(rates profit.Rates) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Period", "Rate"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, row := range rates.Rows() {
		table.Append([]string{row.Label, row.Text})
	}

	table.Render()
	return display.String()
}

// Pre wraps text for Telegram's HTML parse mode so tables keep their alignment.
func Pre(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return "<pre>" + r.Replace(text) + "</pre>"
}
