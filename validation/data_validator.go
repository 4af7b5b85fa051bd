// Package validation provides input and data validation for the catalog server.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/interfaces"
)

// Field limits for create and update payloads
const (
	MaxNameLength  = 200
	MaxFieldLength = 100
	MaxInputLength = 100
	MaxInputWords  = 8

	// MaxPage keeps (page-1)*per_page within int range
	MaxPage = math.MaxInt / catalog.MaxPerPage

	MaxChatMessageLength = 2000
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: letters in any script, digits and the punctuation found in
	// medicine names and strengths such as "(10 mg+30 mg+1.25 mg)/5 ml"
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+'(),/%]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates free-text search input
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > MaxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxInputLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	if len(strings.Fields(input)) > MaxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", MaxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' ( ) , / %% are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID parses a medicine id path parameter
func (v *DataValidatorImpl) ValidateID(input string) (int, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return -1, fmt.Errorf("id cannot be empty")
	}

	// Reject if original input contained whitespace (spaces, tabs, etc.)
	if len(input) != len(trimmedInput) || len(trimmedInput) > 10 {
		return -1, fmt.Errorf("invalid id: %q", input)
	}

	id, err := strconv.Atoi(trimmedInput)
	if err != nil || id < 1 {
		return -1, fmt.Errorf("invalid id: must be a positive integer")
	}

	return id, nil
}

// ValidateSearchParams checks the ranges of a search request
func (v *DataValidatorImpl) ValidateSearchParams(p catalog.SearchParams) error {
	if p.Query != "" {
		if err := v.ValidateInput(p.Query); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
	}

	if p.SearchType != catalog.SearchByBrandName && p.SearchType != catalog.SearchByGenericName {
		return fmt.Errorf("search_type must be %q or %q, got: %q", catalog.SearchByBrandName, catalog.SearchByGenericName, p.SearchType)
	}

	if len(p.Type) > MaxFieldLength || len(p.DosageForm) > MaxFieldLength {
		return fmt.Errorf("filter too long: maximum %d characters", MaxFieldLength)
	}

	if !slices.Contains(catalog.SortableFields, p.SortBy) {
		return fmt.Errorf("sort_by must be one of %v, got: %q", catalog.SortableFields, p.SortBy)
	}

	if p.SortOrder != catalog.SortAsc && p.SortOrder != catalog.SortDesc {
		return fmt.Errorf("sort_order must be asc or desc, got: %q", p.SortOrder)
	}

	if p.Page < 1 || p.Page > MaxPage {
		return fmt.Errorf("page must be between 1 and %d, got: %d", MaxPage, p.Page)
	}

	if p.PerPage < 1 || p.PerPage > catalog.MaxPerPage {
		return fmt.Errorf("per_page must be between 1 and %d, got: %d", catalog.MaxPerPage, p.PerPage)
	}

	if p.MinPrice != nil && *p.MinPrice < 0 {
		return fmt.Errorf("min_price cannot be negative")
	}

	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		return fmt.Errorf("max_price cannot be negative")
	}

	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return fmt.Errorf("min_price cannot be greater than max_price")
	}

	return nil
}

// ValidateMedicineUpdate checks a create or update payload. Creating a
// medicine requires a brand name.
func (v *DataValidatorImpl) ValidateMedicineUpdate(fields catalog.MedicineUpdate, requireBrandName bool) error {
	if requireBrandName && (fields.BrandName == nil || strings.TrimSpace(*fields.BrandName) == "") {
		return fmt.Errorf("brand_name is required")
	}

	if fields.BrandName != nil && len(*fields.BrandName) > MaxNameLength {
		return fmt.Errorf("brand_name too long: %d characters", len(*fields.BrandName))
	}

	if fields.Generic != nil && len(*fields.Generic) > MaxNameLength {
		return fmt.Errorf("generic too long: %d characters", len(*fields.Generic))
	}

	short := map[string]*string{
		"type":         fields.Type,
		"dosage_form":  fields.DosageForm,
		"strength":     fields.Strength,
		"manufacturer": fields.Manufacturer,
	}
	for name, value := range short {
		if value != nil && len(*value) > MaxFieldLength {
			return fmt.Errorf("%s too long: %d characters", name, len(*value))
		}
	}

	if fields.Price != nil && *fields.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	return nil
}

// ReportDataQuality generates a data quality report for an imported catalog
func (v *DataValidatorImpl) ReportDataQuality(medicines []catalog.Medicine) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		TotalMedicines:      len(medicines),
		DuplicateIDs:        []int{},
		DuplicateBrandIDs:   []int{},
		MissingBrandNameIDs: []int{},
		NegativePriceIDs:    []int{},
	}

	// Check 1: Find all duplicate ids and brand ids
	idMap := make(map[int]bool)
	brandIDMap := make(map[int]int)
	for _, m := range medicines {
		if idMap[m.ID] {
			report.DuplicateIDs = append(report.DuplicateIDs, m.ID)
		}
		idMap[m.ID] = true

		if m.BrandID != nil {
			brandIDMap[*m.BrandID]++
			if brandIDMap[*m.BrandID] == 2 {
				report.DuplicateBrandIDs = append(report.DuplicateBrandIDs, *m.BrandID)
			}
		}
	}

	for _, m := range medicines {
		// Check 2: Missing brand names (store first 10 ids)
		if strings.TrimSpace(m.BrandName) == "" {
			report.MissingBrandNames++
			if len(report.MissingBrandNameIDs) < 10 {
				report.MissingBrandNameIDs = append(report.MissingBrandNameIDs, m.ID)
			}
		}

		// Check 3: Prices
		switch {
		case m.Price == nil:
			report.MissingPrices++
		case *m.Price < 0:
			report.NegativePrices++
			report.NegativePriceIDs = append(report.NegativePriceIDs, m.ID)
		}

		// Check 4: Other missing fields
		if strings.TrimSpace(m.Generic) == "" {
			report.MissingGenerics++
		}
		if strings.TrimSpace(m.Manufacturer) == "" {
			report.MissingManufacturers++
		}
	}

	return report
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

// ValidateChatMessage checks a message sent to the assistant
func ValidateChatMessage(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxChatMessageLength {
		return fmt.Errorf("message too long: maximum %d characters", MaxChatMessageLength)
	}
	if !utf8.ValidString(message) {
		return fmt.Errorf("message must be valid UTF-8")
	}
	return nil
}
