package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/logging"
)

// Backend is the part of the catalog API the viewer depends on.
type Backend interface {
	Filters(ctx context.Context) (catalog.FilterOptions, error)
	Statistics(ctx context.Context) (catalog.Statistics, error)
	Search(ctx context.Context, params catalog.SearchParams) (catalog.SearchResult, error)
	Get(ctx context.Context, id int) (catalog.Medicine, error)
	Update(ctx context.Context, id int, update catalog.MedicineUpdate) (catalog.Medicine, error)
}

// View draws what the controller tells it to. It must be safe for concurrent
// use. Controller calls are made with the controller lock held, so methods
// must not call back into the controller.
type View interface {
	ShowLoading()
	RenderPage(r Rendering)
	ShowError(message string)
	ShowNotice(message string)
	SetFilterOptions(opts catalog.FilterOptions)
	SetStatistics(stats catalog.Statistics)
	ResetControls(state QueryState)
	ShowRecord(m catalog.Medicine)
	ShowEditForm(form EditForm)
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	PageSize  int
	Debounce  time.Duration
	ExportDir string
	Now       func() time.Time
}

// Controller owns the query state of the inventory table and keeps the view
// in step with the latest search the user asked for.
type Controller struct {
	api       Backend
	view      View
	exportDir string
	now       func() time.Time
	debouncer *Debouncer

	mu        sync.Mutex
	state     QueryState
	page      *ResultPage // last successful search
	pageState QueryState  // state that produced page
	loading   bool
	seq       uint64 // number of the latest issued search
}

// New returns a controller in the default query state. Nothing is fetched
// until Initialize or FetchAndRender is called.
func New(api Backend, view View, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		api:       api,
		view:      view,
		exportDir: opts.ExportDir,
		now:       opts.Now,
		debouncer: NewDebouncer(opts.Debounce),
		state:     DefaultQueryState(opts.PageSize),
	}
}

// Initialize loads the filter vocabularies and statistics, then the first
// page. Vocabulary and statistics failures are logged and otherwise ignored.
func (c *Controller) Initialize(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		opts, err := c.api.Filters(ctx)
		if err != nil {
			logging.Warn("Failed to load filter options", "error", err)
			return nil
		}
		c.mu.Lock()
		c.view.SetFilterOptions(opts)
		c.mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stats, err := c.api.Statistics(ctx)
		if err != nil {
			logging.Warn("Failed to load statistics", "error", err)
			return nil
		}
		c.mu.Lock()
		c.view.SetStatistics(stats)
		c.mu.Unlock()
		return nil
	})

	// Both loads log their failure and return nil, so Wait only joins them.
	// A missing vocabulary or statistic must not keep the first page from loading.
	_ = g.Wait()

	return c.FetchAndRender(ctx)
}

// SetFilter changes one filter, goes back to page 1 and searches again.
func (c *Controller) SetFilter(ctx context.Context, field FilterField, value string) error {
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		return s.withFilter(field, value), true
	})
}

// QueryChanged records typed search text. The search runs once typing
// pauses for the debounce period; earlier pending text is dropped.
func (c *Controller) QueryChanged(ctx context.Context, text string) {
	c.debouncer.Trigger(func() {
		if err := c.SetFilter(ctx, FilterQuery, text); err != nil {
			logging.Debug("Debounced search failed", "query", text, "error", err)
		}
	})
}

// SetSort sorts by field, flipping the order when field is already selected.
func (c *Controller) SetSort(ctx context.Context, field string) error {
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		return s.withSort(field), true
	})
}

// GoToPage loads page n. It does nothing when n is out of range of the last
// loaded result or already current.
func (c *Controller) GoToPage(ctx context.Context, n int) error {
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		total := 0
		if c.page != nil {
			total = c.page.TotalPages(s.PageSize)
		}
		if n < 1 || n > total || n == s.Page {
			return s, false
		}
		s.Page = n
		return s, true
	})
}

// ClearFilters resets search text, filters and search type. The sort is kept.
// Typed text still waiting for the debounce is dropped.
func (c *Controller) ClearFilters(ctx context.Context) error {
	c.debouncer.Stop()
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		cleared := s.cleared()
		c.view.ResetControls(cleared)
		return cleared, true
	})
}

// Apply replaces the whole query state and searches once. Empty search type,
// sort and order fall back to their defaults and the page is at least 1.
// Pending debounced text is dropped.
func (c *Controller) Apply(ctx context.Context, state QueryState) error {
	c.debouncer.Stop()
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		d := DefaultQueryState(s.PageSize)
		if state.SearchType == "" {
			state.SearchType = d.SearchType
		}
		if state.SortBy == "" {
			state.SortBy = d.SortBy
		}
		if state.SortOrder == "" {
			state.SortOrder = d.SortOrder
		}
		state.Page = max(state.Page, 1)
		if state.PageSize <= 0 {
			state.PageSize = s.PageSize
		}
		return state, true
	})
}

// FetchAndRender searches with the current state and renders the outcome.
func (c *Controller) FetchAndRender(ctx context.Context) error {
	return c.mutateAndFetch(ctx, func(s QueryState) (QueryState, bool) {
		return s, true
	})
}

// mutateAndFetch applies mutate and issues the search in one critical
// section, so the issued number always matches the state it was taken from.
func (c *Controller) mutateAndFetch(ctx context.Context, mutate func(QueryState) (QueryState, bool)) error {
	c.mu.Lock()
	next, fetch := mutate(c.state)
	if !fetch {
		c.mu.Unlock()
		return nil
	}
	c.state = next
	c.seq++
	seq := c.seq
	c.loading = true
	c.view.ShowLoading()
	c.mu.Unlock()

	res, err := c.api.Search(ctx, next.Params())

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		logging.Debug("Discarding stale search response", "seq", seq, "latest", c.seq, "failed", err != nil)
		return nil
	}
	c.loading = false

	if err != nil {
		logging.Warn("Failed to load medicines", "error", err, "page", next.Page)
		c.view.ShowError(ErrorMessage)
		return fmt.Errorf("search medicines: %w", err)
	}

	page := ResultPage{Records: res.Medicines, Total: res.Total, Page: next.Page}
	if res.Page > 0 {
		page.Page = res.Page
		c.state.Page = res.Page
		next.Page = res.Page
	}
	c.page = &page
	c.pageState = next

	c.view.RenderPage(BuildRendering(next, page))
	return nil
}

// ExportCurrentPageToCSV writes the records of the loaded page to a dated CSV
// file in the export directory and returns its path.
func (c *Controller) ExportCurrentPageToCSV() (string, error) {
	c.mu.Lock()
	var records []catalog.Medicine
	if c.page != nil {
		records = append(records, c.page.Records...)
	}
	if len(records) == 0 {
		c.view.ShowNotice(NoDataNotice)
		c.mu.Unlock()
		return "", ErrNothingToExport
	}
	c.mu.Unlock()

	if err := os.MkdirAll(c.exportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(c.exportDir, ExportFileName(c.now()))
	if err := os.WriteFile(path, []byte(EncodeCSV(records)), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logging.Info("Exported medicines", "path", path, "records", len(records))
	return path, nil
}

// State returns the current query state.
func (c *Controller) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Page returns the last successful result page and the state that produced it.
func (c *Controller) Page() (ResultPage, QueryState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return ResultPage{}, QueryState{}, false
	}
	return *c.page, c.pageState, true
}

// Loading reports whether the latest search is still in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Close cancels a pending debounced search.
func (c *Controller) Close() {
	c.debouncer.Stop()
}
