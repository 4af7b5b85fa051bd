// Command medinv serves the medicine catalog API and browses it from the terminal.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/giygas/medicine-inventory/config"
	"github.com/giygas/medicine-inventory/logging"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "medinv",
	Short: "Medicine inventory: catalog API server and terminal browser",
	Long: `medinv keeps a searchable medicine catalog in memory and serves it over HTTP.

  serve   load the catalog from CATALOG_SOURCE and serve the API
  browse  browse, search and edit the catalog of a running server
  export  write one page of search results to a CSV file

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read .env: %w", err)
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := logging.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to close log file:", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.AddCommand(serveCmd, browseCmd, exportCmd)
}

// initLogging sets up the global logger writing to LOG_DIR/<prefix>-YYYY-Www.log
func initLogging(prefix string, disableConsole bool) {
	opts := logging.OptionsFromConfig(cfg, prefix)
	opts.Verbose = verbose
	opts.DisableConsole = disableConsole
	if verbose {
		opts.Level = "debug"
	}
	logging.InitLogger(opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
