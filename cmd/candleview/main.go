package main

import (
	"os"

	"CandleView/cmd/candleview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
