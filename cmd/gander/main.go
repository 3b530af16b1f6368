package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/cmd/gander/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "gander",
		Short: "Command normalization tool for Gander",
		Long:  "CLI tool for normalizing natural-language commands without a running server",
	}

	rootCmd.AddCommand(commands.NewParseCmd())
	rootCmd.AddCommand(commands.NewZonesCmd())
	rootCmd.AddCommand(commands.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
