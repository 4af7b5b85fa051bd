// Package tui is the terminal front end of the medicine inventory viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/inventory"
	"github.com/giygas/medicine-inventory/logging"
)

// Controller is the result set controller driven by the model.
type Controller interface {
	Initialize(ctx context.Context) error
	SetFilter(ctx context.Context, field inventory.FilterField, value string) error
	QueryChanged(ctx context.Context, text string)
	SetSort(ctx context.Context, field string) error
	GoToPage(ctx context.Context, n int) error
	ClearFilters(ctx context.Context) error
	FetchAndRender(ctx context.Context) error
	ExportCurrentPageToCSV() (string, error)
}

// RecordViewer opens the detail dialog of a medicine.
type RecordViewer interface {
	Open(ctx context.Context, id int) error
}

// RecordEditor loads and saves the edit dialog of a medicine.
type RecordEditor interface {
	Begin(ctx context.Context, id int) (inventory.EditForm, error)
	Submit(ctx context.Context, form inventory.EditForm) (catalog.Medicine, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeRecord
	modeEdit
)

const counterTick = 50 * time.Millisecond

type counterTickMsg time.Time

type exportDoneMsg struct {
	path string
	err  error
}

type column struct {
	key   string
	field string
	title string
	width int
}

var columns = []column{
	{"1", "brand_name", "Brand Name", 24},
	{"2", "generic", "Generic Name", 24},
	{"3", "type", "Type", 12},
	{"4", "dosage_form", "Dosage Form", 14},
	{"5", "strength", "Strength", 12},
	{"6", "manufacturer", "Manufacturer", 22},
	{"7", "price", "Price", 10},
}

var editLabels = []string{"Brand Name", "Generic Name", "Type", "Dosage Form", "Strength", "Manufacturer", "Price"}

// Model is the bubbletea model of the inventory browser.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	viewer RecordViewer
	editor RecordEditor
	now    func() time.Time

	mode   mode
	width  int
	height int
	table  table.Model
	search textinput.Model

	// control values, reset by the controller through ResetControls
	typeIdx    int
	formIdx    int
	searchType string

	state     inventory.QueryState
	rendering inventory.Rendering
	hasPage   bool
	loading   bool
	errText   string
	notice    string
	status    string

	record     *catalog.Medicine
	editForm   inventory.EditForm
	editInputs []textinput.Model
	editFocus  int

	filters      catalog.FilterOptions
	stats        *catalog.Statistics
	statsStart   time.Time
	statsElapsed time.Duration
}

// NewModel returns a browser model driving ctrl.
func NewModel(ctx context.Context, ctrl Controller, viewer RecordViewer, editor RecordEditor) Model {
	t := table.New(
		table.WithColumns(tableColumns(inventory.DefaultQueryState(0))),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	search := textinput.New()
	search.Placeholder = "Search medicines..."
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	return Model{
		ctx:        ctx,
		ctrl:       ctrl,
		viewer:     viewer,
		editor:     editor,
		now:        time.Now,
		table:      t,
		search:     search,
		searchType: catalog.SearchByBrandName,
		state:      inventory.DefaultQueryState(0),
		loading:    true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.ctrl.Initialize)
}

// run executes a controller operation off the UI loop. Its outcome reaches
// the model through the view messages.
func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := op(ctx); err != nil {
			logging.Debug("Inventory operation failed", "error", err)
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(5, msg.Height-16))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeRecord:
			return m.updateRecord(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateBrowse(msg)
		}

	case loadingMsg:
		m.loading = true
		m.errText = ""

	case pageMsg:
		r := inventory.Rendering(msg)
		m.rendering = r
		m.hasPage = true
		m.loading = false
		m.errText = ""
		m.state = r.State
		m.table.SetColumns(tableColumns(r.State))
		m.table.SetRows(tableRows(r.Rows))
		if m.table.Cursor() >= len(r.Rows) {
			m.table.SetCursor(0)
		}

	case searchErrorMsg:
		m.loading = false
		m.errText = string(msg)

	case noticeMsg:
		m.notice = string(msg)
		if m.notice == inventory.UpdateSuccessNotice {
			m.mode = modeBrowse
		}

	case filterOptionsMsg:
		m.filters = catalog.FilterOptions(msg)

	case statisticsMsg:
		stats := catalog.Statistics(msg)
		m.stats = &stats
		m.statsStart = m.now()
		m.statsElapsed = 0
		return m, tickCounter()

	case counterTickMsg:
		m.statsElapsed = time.Time(msg).Sub(m.statsStart)
		if m.statsElapsed < inventory.CounterDuration {
			return m, tickCounter()
		}

	case resetControlsMsg:
		m.state = inventory.QueryState(msg)
		m.search.SetValue("")
		m.typeIdx = 0
		m.formIdx = 0
		m.searchType = m.state.SearchType

	case recordMsg:
		rec := catalog.Medicine(msg)
		m.record = &rec
		m.mode = modeRecord

	case editFormMsg:
		m.editForm = inventory.EditForm(msg)
		m.editInputs = newEditInputs(m.editForm)
		m.editFocus = 0
		m.mode = modeEdit
		return m, m.editInputs[0].Focus()

	case exportDoneMsg:
		switch {
		case msg.err == nil:
			m.status = "Exported to " + msg.path
		case errors.Is(msg.err, inventory.ErrNothingToExport):
			// the controller already raised a notice
		default:
			m.status = "Export failed: " + msg.err.Error()
		}
	}

	return m, nil
}

func tickCounter() tea.Cmd {
	return tea.Tick(counterTick, func(t time.Time) tea.Msg {
		return counterTickMsg(t)
	})
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx

	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "t":
		m.typeIdx = nextIndex(m.typeIdx, len(m.filters.Types))
		value := optionAt(m.filters.Types, m.typeIdx)
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SetFilter(ctx, inventory.FilterType, value) })
	case "f":
		m.formIdx = nextIndex(m.formIdx, len(m.filters.DosageForms))
		value := optionAt(m.filters.DosageForms, m.formIdx)
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SetFilter(ctx, inventory.FilterDosageForm, value) })
	case "g":
		if m.searchType == catalog.SearchByGenericName {
			m.searchType = catalog.SearchByBrandName
		} else {
			m.searchType = catalog.SearchByGenericName
		}
		value := m.searchType
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SetFilter(ctx, inventory.FilterSearchType, value) })
	case "1", "2", "3", "4", "5", "6", "7":
		field := columnByKey(key).field
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SetSort(ctx, field) })
	case "left", "h", "pgup":
		return m, m.goToPage(m.rendering.Pagination.Current - 1)
	case "right", "l", "pgdown":
		return m, m.goToPage(m.rendering.Pagination.Current + 1)
	case "home":
		return m, m.goToPage(1)
	case "end":
		return m, m.goToPage(m.rendering.Pagination.TotalPages)
	case "c":
		return m, m.run(m.ctrl.ClearFilters)
	case "r":
		return m, m.run(m.ctrl.FetchAndRender)
	case "x":
		return m, func() tea.Msg {
			path, err := m.ctrl.ExportCurrentPageToCSV()
			return exportDoneMsg{path: path, err: err}
		}
	case "enter", "v":
		if id, ok := m.selectedID(); ok && m.viewer != nil {
			return m, m.run(func(ctx context.Context) error { return m.viewer.Open(ctx, id) })
		}
		return m, nil
	case "e":
		if id, ok := m.selectedID(); ok && m.editor != nil {
			return m, func() tea.Msg {
				if _, err := m.editor.Begin(ctx, id); err != nil {
					logging.Debug("Edit dialog not opened", "id", id, "error", err)
				}
				return nil
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) goToPage(n int) tea.Cmd {
	if !m.hasPage {
		return nil
	}
	return m.run(func(ctx context.Context) error { return m.ctrl.GoToPage(ctx, n) })
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.ctrl.QueryChanged(m.ctx, strings.TrimSpace(after))
	}
	return m, cmd
}

func (m Model) updateRecord(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.mode = modeBrowse
		m.record = nil
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "tab", "down":
		return m, m.focusEdit(m.editFocus + 1)
	case "shift+tab", "up":
		return m, m.focusEdit(m.editFocus - 1)
	case "ctrl+s":
		return m, m.submitEdit()
	case "enter":
		if m.editFocus == len(m.editInputs)-1 {
			return m, m.submitEdit()
		}
		return m, m.focusEdit(m.editFocus + 1)
	}

	var cmd tea.Cmd
	m.editInputs[m.editFocus], cmd = m.editInputs[m.editFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusEdit(i int) tea.Cmd {
	n := len(m.editInputs)
	if n == 0 {
		return nil
	}
	m.editInputs[m.editFocus].Blur()
	m.editFocus = (i%n + n) % n
	return m.editInputs[m.editFocus].Focus()
}

func (m Model) submitEdit() tea.Cmd {
	form := m.formFromInputs()
	return m.run(func(ctx context.Context) error {
		_, err := m.editor.Submit(ctx, form)
		return err
	})
}

// formFromInputs reads the dialog inputs into a form for the edited record.
func (m Model) formFromInputs() inventory.EditForm {
	v := func(i int) string { return m.editInputs[i].Value() }
	return inventory.EditForm{
		ID:           m.editForm.ID,
		BrandName:    v(0),
		Generic:      v(1),
		Type:         v(2),
		DosageForm:   v(3),
		Strength:     v(4),
		Manufacturer: v(5),
		Price:        v(6),
	}
}

func newEditInputs(form inventory.EditForm) []textinput.Model {
	values := []string{form.BrandName, form.Generic, form.Type, form.DosageForm, form.Strength, form.Manufacturer, form.Price}
	inputs := make([]textinput.Model, len(values))
	for i, value := range values {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.Width = 40
		in.SetValue(value)
		inputs[i] = in
	}
	return inputs
}

func (m Model) selectedID() (int, bool) {
	i := m.table.Cursor()
	if !m.hasPage || i < 0 || i >= len(m.rendering.Rows) {
		return 0, false
	}
	return m.rendering.Rows[i].ID, true
}

func nextIndex(i, options int) int {
	// index 0 is "all", options are 1..n
	return (i + 1) % (options + 1)
}

func optionAt(options []string, i int) string {
	if i <= 0 || i > len(options) {
		return ""
	}
	return options[i-1]
}

func columnByKey(key string) column {
	for _, c := range columns {
		if c.key == key {
			return c
		}
	}
	return columns[0]
}

func tableColumns(state inventory.QueryState) []table.Column {
	cols := make([]table.Column, 0, len(columns))
	for _, c := range columns {
		title := c.title
		if c.field == state.SortBy {
			if state.SortOrder == catalog.SortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: c.width})
	}
	return cols
}

func tableRows(rows []inventory.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.BrandName, r.Generic, r.Type, r.DosageForm, r.Strength, r.Manufacturer, r.Price})
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Medicine Inventory"))
	b.WriteString("\n")
	if m.stats != nil {
		b.WriteString(m.viewStatistics())
		b.WriteString("\n")
	}
	b.WriteString(m.viewControls())
	b.WriteString("\n\n")
	b.WriteString(m.viewBody())
	b.WriteString("\n")
	b.WriteString(m.viewPagination())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("/ search  g brand/generic  t type  f form  1-7 sort  ←/→ page  enter view  e edit  c clear  x export  q quit"))

	switch {
	case m.notice != "":
		return b.String() + "\n\n" + modalStyle.Render(m.notice+"\n\n"+mutedStyle.Render("press any key"))
	case m.mode == modeRecord && m.record != nil:
		return b.String() + "\n\n" + m.viewRecord()
	case m.mode == modeEdit:
		return b.String() + "\n\n" + m.viewEdit()
	}
	return b.String()
}

func (m Model) viewStatistics() string {
	s := m.stats
	counter := func(target float64) int {
		return inventory.CounterValue(target, m.statsElapsed, inventory.CounterDuration)
	}
	box := func(label string, value string) string {
		return statBox.Render(statLabel.Render(label) + "\n" + statValue.Render(value))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Total Medicines", fmt.Sprintf("%d", counter(float64(s.TotalMedicines)))),
		box("Manufacturers", fmt.Sprintf("%d", counter(float64(s.TotalManufacturers)))),
		box("Types", fmt.Sprintf("%d", counter(float64(s.TotalTypes)))),
		box("Avg Price", fmt.Sprintf("৳%d", counter(float64(int(s.AveragePrice+0.5))))),
	)
}

func (m Model) viewControls() string {
	searchLabel := "Brand"
	if m.searchType == catalog.SearchByGenericName {
		searchLabel = "Generic"
	}

	typeValue := optionAt(m.filters.Types, m.typeIdx)
	if typeValue == "" {
		typeValue = "All Types"
	}
	formValue := optionAt(m.filters.DosageForms, m.formIdx)
	if formValue == "" {
		formValue = "All Dosage Forms"
	}

	return fmt.Sprintf("%s %s  %s %s  %s %s",
		mutedStyle.Render(searchLabel+":"), m.search.View(),
		mutedStyle.Render("Type:"), typeValue,
		mutedStyle.Render("Dosage:"), formValue,
	)
}

func (m Model) viewBody() string {
	switch {
	case m.loading:
		return mutedStyle.Render(inventory.LoadingMessage)
	case m.errText != "":
		return errorStyle.Render(m.errText) + "\n" + mutedStyle.Render("Change a filter or press r to retry")
	case !m.hasPage:
		return ""
	case m.rendering.Message != "":
		return m.rendering.Message + "\n" + mutedStyle.Render("Try adjusting your search criteria")
	}

	body := m.table.View()
	if i := m.table.Cursor(); i >= 0 && i < len(m.rendering.Rows) {
		row := m.rendering.Rows[i]
		body += "\n" + renderBadge(row.Type) + " " + mutedStyle.Render(row.Slug)
	}
	return body
}

func (m Model) viewPagination() string {
	if !m.hasPage {
		return ""
	}
	p := m.rendering.Pagination

	parts := make([]string, 0, len(p.Pages)+2)
	if p.PrevDisabled {
		parts = append(parts, disabledPage.Render("‹ Previous"))
	} else {
		parts = append(parts, otherPage.Render("‹ Previous"))
	}
	for _, n := range p.Pages {
		if n == p.Current {
			parts = append(parts, currentPage.Render(fmt.Sprintf("%d", n)))
		} else {
			parts = append(parts, otherPage.Render(fmt.Sprintf("%d", n)))
		}
	}
	if p.NextDisabled {
		parts = append(parts, disabledPage.Render("Next ›"))
	} else {
		parts = append(parts, otherPage.Render("Next ›"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n" +
		mutedStyle.Render(m.rendering.Summary.String()+" · "+m.rendering.Count)
}

func (m Model) viewRecord() string {
	r := m.record
	line := func(label, value string) string {
		if value == "" {
			value = "N/A"
		}
		return labelStyle.Render(label) + value
	}

	lines := []string{
		titleStyle.Render("Medicine Details"),
		"",
		line("Brand Name", r.BrandName),
		line("Generic Name", r.Generic),
		labelStyle.Render("Type") + renderBadge(r.Type),
		line("Dosage Form", r.DosageForm),
		line("Strength", r.Strength),
		line("Manufacturer", r.Manufacturer),
		line("Package", strings.TrimSpace(r.PackageContainer+" "+r.PackageSize)),
		labelStyle.Render("Price") + priceStyle.Render(inventory.FormatPrice(r.Price)),
		"",
		mutedStyle.Render("esc close"),
	}
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewEdit() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Edit Medicine #%d", m.editForm.ID)), ""}
	for i, in := range m.editInputs {
		lines = append(lines, labelStyle.Render(editLabels[i])+in.View())
	}
	lines = append(lines, "", mutedStyle.Render("tab next field  ctrl+s save  esc cancel"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}
