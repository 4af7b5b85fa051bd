// Package inventory holds the result set controller behind the medicine
// inventory viewer: query state, search synchronization, rendering and export.
package inventory

import (
	"github.com/giygas/medicine-inventory/catalog"
)

// FilterField names a QueryState field changed through SetFilter.
type FilterField int

const (
	FilterQuery FilterField = iota
	FilterType
	FilterDosageForm
	FilterSearchType
)

func (f FilterField) String() string {
	switch f {
	case FilterQuery:
		return "query"
	case FilterType:
		return "type"
	case FilterDosageForm:
		return "dosage_form"
	case FilterSearchType:
		return "search_type"
	default:
		return "unknown"
	}
}

// QueryState is what the user asked for. Page is 1-based.
type QueryState struct {
	Query      string
	Type       string
	DosageForm string
	SearchType string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// DefaultQueryState returns the state the viewer starts with.
func DefaultQueryState(pageSize int) QueryState {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPerPage
	}
	return QueryState{
		SearchType: catalog.SearchByBrandName,
		SortBy:     catalog.DefaultSortBy,
		SortOrder:  catalog.SortAsc,
		Page:       1,
		PageSize:   pageSize,
	}
}

// Params converts the state into search endpoint parameters.
func (s QueryState) Params() catalog.SearchParams {
	return catalog.SearchParams{
		Query:      s.Query,
		SearchType: s.SearchType,
		Type:       s.Type,
		DosageForm: s.DosageForm,
		SortBy:     s.SortBy,
		SortOrder:  s.SortOrder,
		Page:       s.Page,
		PerPage:    s.PageSize,
	}
}

// withFilter returns a copy of s with field set to value and the page reset.
func (s QueryState) withFilter(field FilterField, value string) QueryState {
	switch field {
	case FilterQuery:
		s.Query = value
	case FilterType:
		s.Type = value
	case FilterDosageForm:
		s.DosageForm = value
	case FilterSearchType:
		if value == "" {
			value = catalog.SearchByBrandName
		}
		s.SearchType = value
	}
	s.Page = 1
	return s
}

// withSort toggles the order when field is already the sort column,
// otherwise sorts ascending by field. The page is reset.
func (s QueryState) withSort(field string) QueryState {
	if s.SortBy == field {
		if s.SortOrder == catalog.SortAsc {
			s.SortOrder = catalog.SortDesc
		} else {
			s.SortOrder = catalog.SortAsc
		}
	} else {
		s.SortBy = field
		s.SortOrder = catalog.SortAsc
	}
	s.Page = 1
	return s
}

// cleared drops text and filters but keeps the sort.
func (s QueryState) cleared() QueryState {
	d := DefaultQueryState(s.PageSize)
	d.SortBy = s.SortBy
	d.SortOrder = s.SortOrder
	return d
}

// ResultPage is the outcome of one successful search.
type ResultPage struct {
	Records []catalog.Medicine
	Total   int
	Page    int
}

// TotalPages is the page count for the result at pageSize records per page.
func (p ResultPage) TotalPages(pageSize int) int {
	return catalog.TotalPages(p.Total, pageSize)
}
