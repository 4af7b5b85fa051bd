package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Search types accepted by the search endpoint.
const (
	SearchByBrandName   = "brand_name"
	SearchByGenericName = "generic_name"
)

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Defaults applied by ParseSearchParams when a parameter is absent.
const (
	DefaultSortBy  = "brand_name"
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SortableFields are the columns a search can be ordered by.
var SortableFields = []string{
	"id", "brand_name", "generic", "type", "dosage_form", "strength", "manufacturer", "price",
}

// SearchParams is the full set of search endpoint parameters.
type SearchParams struct {
	Query      string
	SearchType string
	Type       string
	DosageForm string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	SortOrder  string
	Page       int
	PerPage    int
}

// Values encodes the parameters as a query string. Empty text fields and
// unset prices are omitted.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	setIfNotEmpty := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	setIfNotEmpty("query", p.Query)
	setIfNotEmpty("type", p.Type)
	setIfNotEmpty("dosage_form", p.DosageForm)
	setIfNotEmpty("search_type", p.SearchType)
	setIfNotEmpty("sort_by", p.SortBy)
	setIfNotEmpty("sort_order", p.SortOrder)

	if p.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}

	return v
}

// ParseSearchParams decodes a query string into SearchParams and fills in defaults.
// Range checks are left to the validation package.
func ParseSearchParams(v url.Values) (SearchParams, error) {
	p := SearchParams{
		Query:      strings.TrimSpace(v.Get("query")),
		SearchType: v.Get("search_type"),
		Type:       v.Get("type"),
		DosageForm: v.Get("dosage_form"),
		SortBy:     v.Get("sort_by"),
		SortOrder:  strings.ToLower(v.Get("sort_order")),
		Page:       1,
		PerPage:    DefaultPerPage,
	}

	if p.SearchType == "" {
		p.SearchType = SearchByBrandName
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if p.SortOrder == "" {
		p.SortOrder = SortAsc
	}

	var err error
	if p.Page, err = intParam(v, "page", 1); err != nil {
		return SearchParams{}, err
	}
	if p.PerPage, err = intParam(v, "per_page", DefaultPerPage); err != nil {
		return SearchParams{}, err
	}
	if p.MinPrice, err = floatParam(v, "min_price"); err != nil {
		return SearchParams{}, err
	}
	if p.MaxPrice, err = floatParam(v, "max_price"); err != nil {
		return SearchParams{}, err
	}

	return p, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func floatParam(v url.Values, key string) (*float64, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return &f, nil
}

// TotalPages returns the number of pages needed for total items at perPage items each.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
