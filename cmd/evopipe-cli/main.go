package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/evopipe/cmd/evopipe-cli/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "evopipe-cli",
	Short: "Evopipe CLI for running and inspecting pipeline searches",
	Long: `A command-line interface for the evopipe pipeline search engine that makes
it easy to run an evolutionary pipeline search against a dataset without
writing boilerplate code.

The CLI provides:
- End-to-end searches over CSV and Parquet datasets
- Built-in classification and regression search spaces
- Custom YAML operator configurations
- Export of the winning pipeline as a standalone script`,
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(
		commands.NewRunCommand(),
		commands.NewListOperatorsCommand(),
		commands.NewCheckConfigCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
