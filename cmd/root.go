package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fscryptctl",
	Short: "Per-file encryption policy inspector and validator",
	Long: `fscryptctl is a command-line tool for working with per-file encryption
policy records: decoding serialized on-disk contexts, validating proposed
policies, and listing the supported mode and flag combinations.

Commands:
  inspect     Decode a serialized context record and report its policy
  validate    Check a proposed policy for validity
  modes       List supported encryption modes, mode pairs and flags`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")

	rootCmd.AddCommand(
		inspectCmd,
		validateCmd,
		modesCmd,
	)
}
