package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/inventory"
)

type call struct {
	op    string
	field inventory.FilterField
	value string
	page  int
}

type mockController struct {
	mu    sync.Mutex
	calls []call
}

func (c *mockController) record(cl call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cl)
	return nil
}

func (c *mockController) last() call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return call{}
	}
	return c.calls[len(c.calls)-1]
}

func (c *mockController) Initialize(ctx context.Context) error {
	return c.record(call{op: "initialize"})
}

func (c *mockController) SetFilter(ctx context.Context, field inventory.FilterField, value string) error {
	return c.record(call{op: "filter", field: field, value: value})
}

func (c *mockController) QueryChanged(ctx context.Context, text string) {
	_ = c.record(call{op: "query", value: text})
}

func (c *mockController) SetSort(ctx context.Context, field string) error {
	return c.record(call{op: "sort", value: field})
}

func (c *mockController) GoToPage(ctx context.Context, n int) error {
	return c.record(call{op: "page", page: n})
}

func (c *mockController) ClearFilters(ctx context.Context) error {
	return c.record(call{op: "clear"})
}

func (c *mockController) FetchAndRender(ctx context.Context) error {
	return c.record(call{op: "fetch"})
}

func (c *mockController) ExportCurrentPageToCSV() (string, error) {
	_ = c.record(call{op: "export"})
	return "/tmp/medicine_inventory_2025-01-01.csv", nil
}

func newTestModel() (Model, *mockController) {
	ctrl := &mockController{}
	return NewModel(context.Background(), ctrl, nil, nil), ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func samplePage() inventory.Rendering {
	price := 2.5
	state := inventory.DefaultQueryState(20)
	return inventory.BuildRendering(state, inventory.ResultPage{
		Records: []catalog.Medicine{
			{ID: 7, BrandName: "Napa", Generic: "Paracetamol", Type: "allopathic", Price: &price},
			{ID: 9, BrandName: "Tulsi", Type: "herbal"},
		},
		Total: 45,
		Page:  1,
	})
}

func TestInitRunsInitialize(t *testing.T) {
	m, ctrl := newTestModel()

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned no command")
	}
	cmd()
	if ctrl.last().op != "initialize" {
		t.Errorf("last call = %+v", ctrl.last())
	}
}

func TestPageMessageFillsTable(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, loadingMsg{})
	if !strings.Contains(m.View(), inventory.LoadingMessage) {
		t.Error("loading state not shown")
	}

	m, _ = update(t, m, pageMsg(samplePage()))

	view := m.View()
	for _, want := range []string{"Napa", "Tulsi", "Showing 1 to 20 of 45 results", "45 medicines found", "Brand Name ▲"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if id, ok := m.selectedID(); !ok || id != 7 {
		t.Errorf("selectedID() = %d, %v", id, ok)
	}
}

func TestEmptyAndErrorStates(t *testing.T) {
	m, _ := newTestModel()

	empty := inventory.BuildRendering(inventory.DefaultQueryState(20), inventory.ResultPage{Page: 1})
	m, _ = update(t, m, pageMsg(empty))
	if !strings.Contains(m.View(), inventory.EmptyMessage) {
		t.Error("empty state not shown")
	}

	m, _ = update(t, m, searchErrorMsg(inventory.ErrorMessage))
	if !strings.Contains(m.View(), inventory.ErrorMessage) {
		t.Error("error state not shown")
	}
}

func TestSortKeys(t *testing.T) {
	m, ctrl := newTestModel()

	_, cmd := update(t, m, key("7"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	cmd()
	if got := ctrl.last(); got.op != "sort" || got.value != "price" {
		t.Errorf("last call = %+v", got)
	}
}

func TestTypeFilterCycles(t *testing.T) {
	m, ctrl := newTestModel()
	m, _ = update(t, m, filterOptionsMsg(catalog.FilterOptions{Types: []string{"allopathic", "herbal"}}))

	for _, want := range []string{"allopathic", "herbal", ""} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key("t"))
		cmd()
		if got := ctrl.last(); got.field != inventory.FilterType || got.value != want {
			t.Errorf("filter call = %+v, want type=%q", got, want)
		}
	}
}

func TestSearchTypeToggle(t *testing.T) {
	m, ctrl := newTestModel()

	m, cmd := update(t, m, key("g"))
	cmd()
	if got := ctrl.last(); got.field != inventory.FilterSearchType || got.value != catalog.SearchByGenericName {
		t.Errorf("call = %+v", got)
	}

	_, cmd = update(t, m, key("g"))
	cmd()
	if got := ctrl.last(); got.value != catalog.SearchByBrandName {
		t.Errorf("call = %+v", got)
	}
}

func TestSearchInputForwardsText(t *testing.T) {
	m, ctrl := newTestModel()

	m, _ = update(t, m, key("/"))
	if m.mode != modeSearch {
		t.Fatal("search mode not entered")
	}
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("a"))
	if got := ctrl.last(); got.op != "query" || got.value != "na" {
		t.Errorf("last call = %+v", got)
	}

	m, _ = update(t, m, key("enter"))
	if m.mode != modeBrowse {
		t.Error("enter should leave search mode")
	}
}

func TestPagingKeys(t *testing.T) {
	m, ctrl := newTestModel()

	if _, cmd := update(t, m, key("right")); cmd != nil {
		t.Error("paging before the first page should do nothing")
	}

	m, _ = update(t, m, pageMsg(samplePage()))
	_, cmd := update(t, m, key("right"))
	cmd()
	if got := ctrl.last(); got.op != "page" || got.page != 2 {
		t.Errorf("last call = %+v", got)
	}
}

func TestResetControls(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, filterOptionsMsg(catalog.FilterOptions{Types: []string{"herbal"}}))
	m, _ = update(t, m, key("t"))
	m.search.SetValue("napa")

	m, _ = update(t, m, resetControlsMsg(inventory.DefaultQueryState(20)))

	if m.typeIdx != 0 || m.search.Value() != "" || m.searchType != catalog.SearchByBrandName {
		t.Errorf("controls not reset: type=%d search=%q searchType=%s", m.typeIdx, m.search.Value(), m.searchType)
	}
}

func TestNoticeBlocksUntilKey(t *testing.T) {
	m, ctrl := newTestModel()
	m, _ = update(t, m, noticeMsg(inventory.NoDataNotice))

	if !strings.Contains(m.View(), inventory.NoDataNotice) {
		t.Error("notice not shown")
	}

	m, cmd := update(t, m, key("7"))
	if cmd != nil || len(ctrl.calls) != 0 {
		t.Error("key pressed under a notice should only dismiss it")
	}
	if m.notice != "" {
		t.Error("notice not dismissed")
	}
}

func TestStatisticsCounterAnimation(t *testing.T) {
	m, _ := newTestModel()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	m, cmd := update(t, m, statisticsMsg(catalog.Statistics{TotalMedicines: 1000, TotalManufacturers: 10, TotalTypes: 4, AveragePrice: 99.6}))
	if cmd == nil {
		t.Fatal("expected counter tick")
	}

	m, cmd = update(t, m, counterTickMsg(start.Add(time.Second)))
	if cmd == nil {
		t.Error("counter should keep ticking before the end")
	}
	if !strings.Contains(m.View(), "500") {
		t.Error("half way counter not shown")
	}

	m, cmd = update(t, m, counterTickMsg(start.Add(inventory.CounterDuration)))
	if cmd != nil {
		t.Error("counter should stop at the end")
	}
	view := m.View()
	if !strings.Contains(view, "1000") || !strings.Contains(view, "৳100") {
		t.Errorf("final counters not shown: %s", view)
	}
}

func TestEditDialog(t *testing.T) {
	m, _ := newTestModel()

	m, _ = update(t, m, editFormMsg(inventory.EditForm{ID: 7, BrandName: "Napa", Price: "2.5"}))
	if m.mode != modeEdit || len(m.editInputs) != len(editLabels) {
		t.Fatalf("edit dialog not opened: mode=%d inputs=%d", m.mode, len(m.editInputs))
	}

	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("x"))

	form := m.formFromInputs()
	if form.ID != 7 || form.BrandName != "Napa" || form.Generic != "x" || form.Price != "2.5" {
		t.Errorf("form = %+v", form)
	}

	m, _ = update(t, m, noticeMsg(inventory.UpdateSuccessNotice))
	if m.mode != modeBrowse {
		t.Error("successful update should close the dialog")
	}
}

func TestRecordDialog(t *testing.T) {
	m, _ := newTestModel()
	price := 4.0
	m, _ = update(t, m, recordMsg(catalog.Medicine{ID: 3, BrandName: "Seclo", Type: "allopathic", Price: &price}))

	view := m.View()
	if !strings.Contains(view, "Medicine Details") || !strings.Contains(view, "Seclo") || !strings.Contains(view, "৳4.00") {
		t.Errorf("record dialog missing details: %s", view)
	}

	m, _ = update(t, m, key("esc"))
	if m.mode != modeBrowse || m.record != nil {
		t.Error("esc should close the dialog")
	}
}

func TestProgramViewDispatch(t *testing.T) {
	var v ProgramView
	v.ShowLoading() // dropped, nothing attached

	var got []tea.Msg
	v.attachFunc(func(msg tea.Msg) { got = append(got, msg) })

	v.ShowLoading()
	v.RenderPage(samplePage())
	v.ShowError(inventory.ErrorMessage)
	v.ShowNotice("hi")
	v.SetFilterOptions(catalog.FilterOptions{})
	v.SetStatistics(catalog.Statistics{})
	v.ResetControls(inventory.QueryState{})
	v.ShowRecord(catalog.Medicine{})
	v.ShowEditForm(inventory.EditForm{})

	if len(got) != 9 {
		t.Fatalf("dispatched %d messages, want 9", len(got))
	}
	if _, ok := got[1].(pageMsg); !ok {
		t.Errorf("RenderPage sent %T", got[1])
	}
	if msg, ok := got[3].(noticeMsg); !ok || string(msg) != "hi" {
		t.Errorf("ShowNotice sent %#v", got[3])
	}
}

// ProgramView must satisfy the controller's view contract.
var _ inventory.View = (*ProgramView)(nil)
