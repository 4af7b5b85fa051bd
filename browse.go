package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/giygas/medicine-inventory/apiclient"
	"github.com/giygas/medicine-inventory/inventory"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/tui"
)

var browseAPIURL string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog of a running server in the terminal",
	Long: `Opens the interactive inventory table against API_URL.

Keys: / search, t type filter, f dosage form, g brand/generic search,
1-7 sort by column, left/right page, enter details, e edit, x export, c clear, r refresh, q quit.`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseAPIURL, "api-url", "", "catalog API base URL (overrides API_URL)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the table; logs only go to the file
	initLogging("browse", true)

	if browseAPIURL != "" {
		cfg.APIURL = browseAPIURL
	}

	api, err := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	view := &tui.ProgramView{}
	ctrl := inventory.New(api, view, inventory.Options{
		PageSize:  cfg.PageSize,
		Debounce:  cfg.SearchDebounce,
		ExportDir: cfg.ExportDir,
	})
	defer ctrl.Close()

	model := tui.NewModel(ctx, ctrl,
		inventory.NewRecordViewer(api, view),
		inventory.NewRecordEditor(api, view, ctrl),
	)

	p := tea.NewProgram(model, tea.WithAltScreen())
	view.Attach(p)

	logging.Info("Inventory browser started", "api_url", cfg.APIURL)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inventory browser failed: %w", err)
	}
	return nil
}
