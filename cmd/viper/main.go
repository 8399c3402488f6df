package main

import (
	"fmt"
	"os"

	"github.com/viperlab/viper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "viper:", err)
		os.Exit(1)
	}
}
