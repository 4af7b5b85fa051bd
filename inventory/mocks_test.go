package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/giygas/medicine-inventory/catalog"
)

var errBackendDown = errors.New("backend down")

// mockBackend answers searches from a fixed catalog. A search can be held
// back by registering a gate for its query text.
type mockBackend struct {
	mu        sync.Mutex
	records   []catalog.Medicine
	searches  []catalog.SearchParams
	failNext  int
	filterErr error
	statsErr  error
	getErr    error
	updateErr error
	updates   map[int]catalog.MedicineUpdate
	gates     map[string]chan struct{}
	started   chan string
}

type mockBackendBuilder struct {
	backend *mockBackend
}

func newMockBackendBuilder() *mockBackendBuilder {
	return &mockBackendBuilder{backend: &mockBackend{
		updates: map[int]catalog.MedicineUpdate{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 64),
	}}
}

func (b *mockBackendBuilder) WithMedicines(n int) *mockBackendBuilder {
	for i := 1; i <= n; i++ {
		price := float64(i)
		b.backend.records = append(b.backend.records, catalog.Medicine{
			ID:        i,
			BrandName: fmt.Sprintf("Brand %03d", i),
			Generic:   "Paracetamol",
			Type:      "allopathic",
			Price:     &price,
		})
	}
	return b
}

func (b *mockBackendBuilder) WithRecords(records ...catalog.Medicine) *mockBackendBuilder {
	b.backend.records = append(b.backend.records, records...)
	return b
}

func (b *mockBackendBuilder) WithFilterError() *mockBackendBuilder {
	b.backend.filterErr = errBackendDown
	return b
}

func (b *mockBackendBuilder) WithStatisticsError() *mockBackendBuilder {
	b.backend.statsErr = errBackendDown
	return b
}

func (b *mockBackendBuilder) WithGetError() *mockBackendBuilder {
	b.backend.getErr = errBackendDown
	return b
}

func (b *mockBackendBuilder) WithUpdateError() *mockBackendBuilder {
	b.backend.updateErr = errBackendDown
	return b
}

func (b *mockBackendBuilder) Build() *mockBackend {
	return b.backend
}

// gate holds back searches for query until the returned function is called.
func (m *mockBackend) gate(query string) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[query] = ch
	m.mu.Unlock()
	return func() { close(ch) }
}

func (m *mockBackend) failSearches(n int) {
	m.mu.Lock()
	m.failNext = n
	m.mu.Unlock()
}

func (m *mockBackend) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

func (m *mockBackend) lastSearch() catalog.SearchParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.searches) == 0 {
		return catalog.SearchParams{}
	}
	return m.searches[len(m.searches)-1]
}

func (m *mockBackend) Filters(ctx context.Context) (catalog.FilterOptions, error) {
	if m.filterErr != nil {
		return catalog.FilterOptions{}, m.filterErr
	}
	return catalog.FilterOptions{Types: []string{"allopathic", "herbal"}, DosageForms: []string{"Syrup", "Tablet"}}, nil
}

func (m *mockBackend) Statistics(ctx context.Context) (catalog.Statistics, error) {
	if m.statsErr != nil {
		return catalog.Statistics{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.Statistics{TotalMedicines: len(m.records), TotalTypes: 2}, nil
}

func (m *mockBackend) Search(ctx context.Context, params catalog.SearchParams) (catalog.SearchResult, error) {
	m.mu.Lock()
	m.searches = append(m.searches, params)
	gate := m.gates[params.Query]
	fail := m.failNext > 0
	if fail {
		m.failNext--
	}
	m.mu.Unlock()

	select {
	case m.started <- params.Query:
	default:
	}
	if gate != nil {
		<-gate
	}
	if fail {
		return catalog.SearchResult{}, errBackendDown
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []catalog.Medicine
	for _, r := range m.records {
		if params.Query != "" && r.BrandName != params.Query {
			continue
		}
		matched = append(matched, r)
	}

	perPage := params.PerPage
	start := min((params.Page-1)*perPage, len(matched))
	end := min(start+perPage, len(matched))

	return catalog.SearchResult{
		Medicines:  append([]catalog.Medicine{}, matched[start:end]...),
		Total:      len(matched),
		Page:       params.Page,
		PerPage:    perPage,
		TotalPages: catalog.TotalPages(len(matched), perPage),
	}, nil
}

func (m *mockBackend) Get(ctx context.Context, id int) (catalog.Medicine, error) {
	if m.getErr != nil {
		return catalog.Medicine{}, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return catalog.Medicine{}, fmt.Errorf("medicine %d not found", id)
}

func (m *mockBackend) Update(ctx context.Context, id int, update catalog.MedicineUpdate) (catalog.Medicine, error) {
	if m.updateErr != nil {
		return catalog.Medicine{}, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.updates[id] = update
			m.records[i] = update.Apply(r)
			return m.records[i], nil
		}
	}
	return catalog.Medicine{}, fmt.Errorf("medicine %d not found", id)
}

// recordingView keeps everything the controller asked it to draw.
type recordingView struct {
	mu         sync.Mutex
	loading    int
	renderings []Rendering
	errors     []string
	notices    []string
	filters    *catalog.FilterOptions
	stats      *catalog.Statistics
	resets     []QueryState
	records    []catalog.Medicine
	forms      []EditForm
}

func (v *recordingView) ShowLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading++
}

func (v *recordingView) RenderPage(r Rendering) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renderings = append(v.renderings, r)
}

func (v *recordingView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, message)
}

func (v *recordingView) ShowNotice(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, message)
}

func (v *recordingView) SetFilterOptions(opts catalog.FilterOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = &opts
}

func (v *recordingView) SetStatistics(stats catalog.Statistics) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = &stats
}

func (v *recordingView) ResetControls(state QueryState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resets = append(v.resets, state)
}

func (v *recordingView) ShowRecord(m catalog.Medicine) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append(v.records, m)
}

func (v *recordingView) ShowEditForm(form EditForm) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.forms = append(v.forms, form)
}

func (v *recordingView) lastRendering() (Rendering, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.renderings) == 0 {
		return Rendering{}, false
	}
	return v.renderings[len(v.renderings)-1], true
}

func (v *recordingView) renderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.renderings)
}

func (v *recordingView) lastNotice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.notices) == 0 {
		return ""
	}
	return v.notices[len(v.notices)-1]
}
