package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/logging"
)

// Notices shown by the record dialogs.
const (
	ViewFailedNotice    = "Failed to load medicine details."
	EditLoadFailNotice  = "Failed to load medicine details for editing."
	UpdateSuccessNotice = "Medicine updated successfully!"
	UpdateFailedNotice  = "Failed to update medicine."
)

// EditForm holds the editable fields of a medicine as typed by the user.
type EditForm struct {
	ID           int
	BrandName    string
	Generic      string
	Type         string
	DosageForm   string
	Strength     string
	Manufacturer string
	Price        string
}

// NewEditForm fills a form from a stored medicine. A missing price is left blank.
func NewEditForm(m catalog.Medicine) EditForm {
	form := EditForm{
		ID:           m.ID,
		BrandName:    m.BrandName,
		Generic:      m.Generic,
		Type:         m.Type,
		DosageForm:   m.DosageForm,
		Strength:     m.Strength,
		Manufacturer: m.Manufacturer,
	}
	if m.Price != nil && *m.Price != 0 {
		form.Price = strconv.FormatFloat(*m.Price, 'f', -1, 64)
	}
	return form
}

// ParsedPrice returns the price field as a number; anything unparsable is 0.
func (f EditForm) ParsedPrice() float64 {
	p, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil {
		return 0
	}
	return p
}

// Update builds the full-field update request for the form.
func (f EditForm) Update() catalog.MedicineUpdate {
	price := f.ParsedPrice()
	return catalog.MedicineUpdate{
		BrandName:    &f.BrandName,
		Generic:      &f.Generic,
		Type:         &f.Type,
		DosageForm:   &f.DosageForm,
		Strength:     &f.Strength,
		Manufacturer: &f.Manufacturer,
		Price:        &price,
	}
}

// RecordFetcher loads a single medicine.
type RecordFetcher interface {
	Get(ctx context.Context, id int) (catalog.Medicine, error)
}

// RecordUpdater loads and stores a single medicine.
type RecordUpdater interface {
	RecordFetcher
	Update(ctx context.Context, id int, update catalog.MedicineUpdate) (catalog.Medicine, error)
}

// Refresher reloads the current result page.
type Refresher interface {
	FetchAndRender(ctx context.Context) error
}

// RecordViewer shows the details of one medicine.
type RecordViewer struct {
	api  RecordFetcher
	view View
}

// NewRecordViewer returns a viewer drawing into view.
func NewRecordViewer(api RecordFetcher, view View) *RecordViewer {
	return &RecordViewer{api: api, view: view}
}

// Open fetches medicine id and shows it.
func (v *RecordViewer) Open(ctx context.Context, id int) error {
	m, err := v.api.Get(ctx, id)
	if err != nil {
		logging.Warn("Failed to load medicine", "id", id, "error", err)
		v.view.ShowNotice(ViewFailedNotice)
		return fmt.Errorf("get medicine %d: %w", id, err)
	}

	v.view.ShowRecord(m)
	return nil
}

// RecordEditor edits one medicine and refreshes the table after a save.
type RecordEditor struct {
	api     RecordUpdater
	view    View
	refresh Refresher
}

// NewRecordEditor returns an editor; refresh is reloaded after each update.
func NewRecordEditor(api RecordUpdater, view View, refresh Refresher) *RecordEditor {
	return &RecordEditor{api: api, view: view, refresh: refresh}
}

// Begin fetches medicine id and shows it in an edit form.
func (e *RecordEditor) Begin(ctx context.Context, id int) (EditForm, error) {
	m, err := e.api.Get(ctx, id)
	if err != nil {
		logging.Warn("Failed to load medicine for editing", "id", id, "error", err)
		e.view.ShowNotice(EditLoadFailNotice)
		return EditForm{}, fmt.Errorf("get medicine %d: %w", id, err)
	}

	form := NewEditForm(m)
	e.view.ShowEditForm(form)
	return form, nil
}

// Submit sends every field of form. On success the table is reloaded.
func (e *RecordEditor) Submit(ctx context.Context, form EditForm) (catalog.Medicine, error) {
	updated, err := e.api.Update(ctx, form.ID, form.Update())
	if err != nil {
		logging.Warn("Failed to update medicine", "id", form.ID, "error", err)
		e.view.ShowNotice(UpdateFailedNotice)
		return catalog.Medicine{}, fmt.Errorf("update medicine %d: %w", form.ID, err)
	}

	logging.Info("Medicine updated", "id", updated.ID)
	e.view.ShowNotice(UpdateSuccessNotice)

	if e.refresh != nil {
		if err := e.refresh.FetchAndRender(ctx); err != nil {
			return updated, fmt.Errorf("refresh after update: %w", err)
		}
	}
	return updated, nil
}
