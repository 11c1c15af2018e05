package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"CandleView/internal/servertime"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Print the reference server time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		clock := servertime.NewFetcher(cfg.TimeSource.URL, cfg.TimeSource.Timezone, cfg.Proxy)
		fmt.Println(servertime.Label(clock.Now(ctx)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeCmd)
}
