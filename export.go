package main

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/giygas/medicine-inventory/apiclient"
	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/inventory"
)

var (
	exportState inventory.QueryState
	exportDir   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one page of search results to CSV",
	Long: `Runs one search against API_URL and writes the resulting page to
medicine_inventory_<date>.csv in EXPORT_DIR.

Example:
  medinv export --query napa --type allopathic --sort price --order desc`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportState.Query, "query", "", "search text")
	f.StringVar(&exportState.Type, "type", "", "medicine type filter")
	f.StringVar(&exportState.DosageForm, "dosage-form", "", "dosage form filter")
	f.StringVar(&exportState.SearchType, "search-type", catalog.SearchByBrandName, "match the query against brand_name or generic_name")
	f.StringVar(&exportState.SortBy, "sort", catalog.DefaultSortBy, "sort column")
	f.StringVar(&exportState.SortOrder, "order", catalog.SortAsc, "sort order, asc or desc")
	f.IntVar(&exportState.Page, "page", 1, "result page to export")
	f.IntVar(&exportState.PageSize, "per-page", 0, "records per page (defaults to PAGE_SIZE)")
	f.StringVar(&exportDir, "out", "", "output directory (overrides EXPORT_DIR)")
}

func runExport(cmd *cobra.Command, args []string) error {
	initLogging("export", true)

	if exportDir != "" {
		cfg.ExportDir = exportDir
	}

	api, err := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	view := &consoleView{out: cmd.ErrOrStderr()}
	ctrl := inventory.New(api, view, inventory.Options{
		PageSize:  cfg.PageSize,
		ExportDir: cfg.ExportDir,
	})
	defer ctrl.Close()

	if err := ctrl.Apply(cmd.Context(), exportState); err != nil {
		return err
	}

	path, err := ctrl.ExportCurrentPageToCSV()
	if errors.Is(err, inventory.ErrNothingToExport) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// consoleView prints what the controller reports instead of drawing a table
type consoleView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *consoleView) println(a ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, a...)
}

func (v *consoleView) ShowLoading()                               {}
func (v *consoleView) SetFilterOptions(opts catalog.FilterOptions) {}
func (v *consoleView) SetStatistics(stats catalog.Statistics)     {}
func (v *consoleView) ResetControls(state inventory.QueryState)   {}
func (v *consoleView) ShowRecord(m catalog.Medicine)              {}
func (v *consoleView) ShowEditForm(form inventory.EditForm)       {}

func (v *consoleView) RenderPage(r inventory.Rendering) {
	if r.Message != "" {
		v.println(r.Message)
		return
	}
	v.println(r.Summary.String())
}

func (v *consoleView) ShowError(message string)  { v.println("error:", message) }
func (v *consoleView) ShowNotice(message string) { v.println(message) }
