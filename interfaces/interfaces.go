// Package interfaces defines core abstractions for the catalog server
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
)

// DataQualityReport provides a summary of data quality issues
type DataQualityReport struct {
	TotalMedicines       int
	DuplicateIDs         []int
	DuplicateBrandIDs    []int
	MissingBrandNames    int
	MissingBrandNameIDs  []int
	MissingPrices        int
	MissingGenerics      int
	NegativePrices       int
	NegativePriceIDs     []int
	MissingManufacturers int
}

// DataStore defines the contract for catalog storage operations.
// Reads see a consistent snapshot; writers are serialized and
// swap snapshots atomically for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetMedicines() []catalog.Medicine
	Get(id int) (catalog.Medicine, bool)
	Search(params catalog.SearchParams) catalog.SearchResult
	List(skip, limit int) catalog.SearchResult
	Statistics() catalog.Statistics
	FilterOptions() catalog.FilterOptions
	Count() int
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Record edits, kept across reloads
	Create(fields catalog.MedicineUpdate) (catalog.Medicine, error)
	Update(id int, fields catalog.MedicineUpdate) (catalog.Medicine, error)
	Delete(id int) error

	// Data update methods
	ReplaceAll(medicines []catalog.Medicine)
	BeginUpdate() bool
	EndUpdate()
}

// Importer defines the contract for loading the catalog from its source.
type Importer interface {
	// Load reads every medicine from the configured source
	Load(ctx context.Context) ([]catalog.Medicine, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and data age checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	SearchMedicines(w http.ResponseWriter, r *http.Request)
	ListMedicines(w http.ResponseWriter, r *http.Request)
	GetMedicine(w http.ResponseWriter, r *http.Request)
	CreateMedicine(w http.ResponseWriter, r *http.Request)
	UpdateMedicine(w http.ResponseWriter, r *http.Request)
	DeleteMedicine(w http.ResponseWriter, r *http.Request)
	Statistics(w http.ResponseWriter, r *http.Request)
	Filters(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// AssistantHandler serves the language model endpoints.
type AssistantHandler interface {
	ChatMessage(w http.ResponseWriter, r *http.Request)
	ExplainPrescription(w http.ResponseWriter, r *http.Request)
}

// Assistant answers questions about a prescription and reads prescription images.
type Assistant interface {
	// Chat answers message with the last analyzed prescription as context
	Chat(ctx context.Context, message string) (string, error)

	// AnalyzePrescription extracts the prescribed medicines from an image and
	// matches each against the catalog
	AnalyzePrescription(ctx context.Context, image []byte, mimeType string) (catalog.PrescriptionAnalysis, error)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, the data-related details and the HTTP code to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled reload time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It checks user input and reports on the quality of imported data.
type DataValidator interface {
	// ValidateInput validates free-text user input
	ValidateInput(input string) error

	// ValidateID parses and validates a medicine id path parameter
	ValidateID(input string) (int, error)

	// ValidateSearchParams checks ranges, sort fields and price bounds
	ValidateSearchParams(params catalog.SearchParams) error

	// ValidateMedicineUpdate checks a create or update payload
	ValidateMedicineUpdate(fields catalog.MedicineUpdate, requireBrandName bool) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(medicines []catalog.Medicine) *DataQualityReport
}
