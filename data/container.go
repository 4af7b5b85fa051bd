// Package data provides thread-safe storage for the medicine catalog.
// Readers work on immutable snapshots swapped with atomic operations, so a
// scheduled reload or an edit never blocks a search in flight.
package data

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
)

// Compile-time check to ensure Store implements DataStore
var _ interfaces.DataStore = (*Store)(nil)

// ErrNotFound is returned when no medicine has the requested id
var ErrNotFound = errors.New("medicine not found")

// Default and maximum page sizes of List
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// snapshot is never modified once stored
type snapshot struct {
	medicines []catalog.Medicine // ordered by id
	byID      map[int]int        // id -> index in medicines
}

func newSnapshot(medicines []catalog.Medicine) *snapshot {
	sorted := make([]catalog.Medicine, len(medicines))
	copy(sorted, medicines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]int, len(sorted))
	for i, m := range sorted {
		byID[m.ID] = i
	}
	return &snapshot{medicines: sorted, byID: byID}
}

// edits records what users changed so a reload does not lose it
type edits struct {
	updated map[int]catalog.MedicineUpdate
	created map[int]catalog.Medicine
	deleted map[int]struct{}
}

func newEdits() edits {
	return edits{
		updated: make(map[int]catalog.MedicineUpdate),
		created: make(map[int]catalog.Medicine),
		deleted: make(map[int]struct{}),
	}
}

// Store holds the catalog with atomic pointers for zero-downtime updates
type Store struct {
	current         atomic.Value // *snapshot
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time

	// mu serializes writers; readers never take it
	mu     sync.Mutex
	edits  edits
	base   []catalog.Medicine // last imported catalog, before edits
	nextID int
}

// NewStore creates a new Store with an empty catalog
func NewStore() *Store {
	s := &Store{edits: newEdits(), nextID: 1}
	s.current.Store(newSnapshot(nil))
	s.lastUpdated.Store(time.Time{})
	s.serverStartTime.Store(time.Time{})
	return s
}

// Thread-safe getters with type check

func (s *Store) snapshot() *snapshot {
	if v := s.current.Load(); v != nil {
		if snap, ok := v.(*snapshot); ok {
			return snap
		}
	}

	logging.Warn("Catalog snapshot is empty or invalid")
	return newSnapshot(nil)
}

// GetMedicines returns every medicine ordered by id. The slice must not be modified.
func (s *Store) GetMedicines() []catalog.Medicine {
	return s.snapshot().medicines
}

// Count returns the number of medicines in the catalog
func (s *Store) Count() int {
	return len(s.snapshot().medicines)
}

// Get returns the medicine with the given id
func (s *Store) Get(id int) (catalog.Medicine, bool) {
	snap := s.snapshot()
	i, ok := snap.byID[id]
	if !ok {
		return catalog.Medicine{}, false
	}
	return snap.medicines[i], true
}

// List returns limit medicines in id order starting at offset skip
func (s *Store) List(skip, limit int) catalog.SearchResult {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	medicines := s.snapshot().medicines
	total := len(medicines)

	return catalog.SearchResult{
		Medicines:  window(medicines, skip, limit),
		Total:      total,
		Page:       skip/limit + 1,
		PerPage:    limit,
		TotalPages: catalog.TotalPages(total, limit),
	}
}

// GetLastUpdated returns the timestamp of the last catalog reload
func (s *Store) GetLastUpdated() time.Time {
	if v := s.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog reload is currently in progress
func (s *Store) IsUpdating() bool {
	return s.updating.Load()
}

// SetServerStartTime sets the server start time
func (s *Store) SetServerStartTime(startTime time.Time) {
	s.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (s *Store) GetServerStartTime() time.Time {
	if v := s.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// ReplaceAll atomically swaps the catalog for a freshly imported one.
// Edits made through Create, Update and Delete are applied on top.
func (s *Store) ReplaceAll(medicines []catalog.Medicine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.base = medicines
	s.publishLocked()
	s.lastUpdated.Store(time.Now())
}

// publishLocked rebuilds the snapshot from base and edits. Callers hold mu.
func (s *Store) publishLocked() {
	merged := make([]catalog.Medicine, 0, len(s.base)+len(s.edits.created))
	seen := make(map[int]struct{}, len(s.base))

	for _, m := range s.base {
		if _, gone := s.edits.deleted[m.ID]; gone {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if created, ok := s.edits.created[m.ID]; ok {
			m = created
		} else if u, ok := s.edits.updated[m.ID]; ok {
			m = u.Apply(m)
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}

	for id, m := range s.edits.created {
		if _, ok := seen[id]; !ok {
			merged = append(merged, m)
		}
	}

	snap := newSnapshot(merged)
	for _, m := range snap.medicines {
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	s.current.Store(snap)
}

// Create adds a medicine with the next free id
func (s *Store) Create(fields catalog.MedicineUpdate) (catalog.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := fields.Apply(catalog.Medicine{ID: s.nextID})
	m.Slug = Slugify(m.BrandName, m.DosageForm, m.Strength)
	s.nextID++

	s.edits.created[m.ID] = m
	delete(s.edits.deleted, m.ID)
	s.publishLocked()

	return m, nil
}

// Update writes the non-nil fields over the medicine with the given id
func (s *Store) Update(id int, fields catalog.MedicineUpdate) (catalog.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.Get(id)
	if !ok {
		return catalog.Medicine{}, fmt.Errorf("update medicine %d: %w", id, ErrNotFound)
	}

	updated := fields.Apply(current)
	if _, ok := s.edits.created[id]; ok {
		s.edits.created[id] = updated
	} else {
		s.edits.updated[id] = mergeUpdates(s.edits.updated[id], fields)
	}
	s.publishLocked()

	return updated, nil
}

// Delete removes the medicine with the given id
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Get(id); !ok {
		return fmt.Errorf("delete medicine %d: %w", id, ErrNotFound)
	}

	delete(s.edits.created, id)
	delete(s.edits.updated, id)
	s.edits.deleted[id] = struct{}{}
	s.publishLocked()

	return nil
}

// BeginUpdate marks the start of a catalog reload
// Returns true if the reload can proceed, false if another one is in progress
func (s *Store) BeginUpdate() bool {
	return s.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog reload
func (s *Store) EndUpdate() {
	s.updating.Store(false)
}

// mergeUpdates returns a with every non-nil field of b written over it
func mergeUpdates(a, b catalog.MedicineUpdate) catalog.MedicineUpdate {
	if b.BrandName != nil {
		a.BrandName = b.BrandName
	}
	if b.Generic != nil {
		a.Generic = b.Generic
	}
	if b.Type != nil {
		a.Type = b.Type
	}
	if b.DosageForm != nil {
		a.DosageForm = b.DosageForm
	}
	if b.Strength != nil {
		a.Strength = b.Strength
	}
	if b.Manufacturer != nil {
		a.Manufacturer = b.Manufacturer
	}
	if b.Price != nil {
		a.Price = b.Price
	}
	return a
}

// Slugify builds a url slug such as "a-coldsyrup4-mg5-ml" from its parts
func Slugify(parts ...string) string {
	var b strings.Builder
	lastDash := true
	for _, part := range parts {
		for _, r := range strings.ToLower(part) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
				lastDash = false
			case r == ' ' || r == '-':
				if !lastDash {
					b.WriteByte('-')
					lastDash = true
				}
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func window(medicines []catalog.Medicine, offset, limit int) []catalog.Medicine {
	if offset >= len(medicines) {
		return []catalog.Medicine{}
	}
	end := offset + limit
	if end > len(medicines) {
		end = len(medicines)
	}
	out := make([]catalog.Medicine, end-offset)
	copy(out, medicines[offset:end])
	return out
}
