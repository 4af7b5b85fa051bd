package data

import (
	"cmp"
	"slices"
	"strings"

	"github.com/giygas/medicine-inventory/catalog"
)

// Search filters, orders and pages the catalog.
//
// Type and dosage form match case-insensitively anywhere in the field. A query
// matches brand_name or generic depending on the search type; exact matches come
// before partial ones, and the requested sort applies within each group.
func (s *Store) Search(params catalog.SearchParams) catalog.SearchResult {
	page := max(params.Page, 1)
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = catalog.DefaultPerPage
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	typ := strings.ToLower(params.Type)
	form := strings.ToLower(params.DosageForm)
	queryField := func(m catalog.Medicine) string { return m.BrandName }
	if params.SearchType == catalog.SearchByGenericName {
		queryField = func(m catalog.Medicine) string { return m.Generic }
	}

	type hit struct {
		medicine catalog.Medicine
		exact    bool
	}

	var hits []hit
	for _, m := range s.snapshot().medicines {
		if typ != "" && !strings.Contains(strings.ToLower(m.Type), typ) {
			continue
		}
		if form != "" && !strings.Contains(strings.ToLower(m.DosageForm), form) {
			continue
		}
		if params.MinPrice != nil && (m.Price == nil || *m.Price < *params.MinPrice) {
			continue
		}
		if params.MaxPrice != nil && (m.Price == nil || *m.Price > *params.MaxPrice) {
			continue
		}

		exact := false
		if query != "" {
			field := strings.ToLower(queryField(m))
			if !strings.Contains(field, query) {
				continue
			}
			exact = field == query
		}
		hits = append(hits, hit{medicine: m, exact: exact})
	}

	compare := columnComparator(params.SortBy)
	desc := strings.EqualFold(params.SortOrder, catalog.SortDesc)

	slices.SortStableFunc(hits, func(a, b hit) int {
		if a.exact != b.exact {
			if a.exact {
				return -1
			}
			return 1
		}
		c := compare(a.medicine, b.medicine)
		if desc {
			return -c
		}
		return c
	})

	total := len(hits)
	medicines := []catalog.Medicine{}
	// Compare before multiplying so a huge page cannot overflow the offset
	if page-1 <= total/perPage {
		offset := (page - 1) * perPage
		for i := offset; i < total && i < offset+perPage; i++ {
			medicines = append(medicines, hits[i].medicine)
		}
	}

	return catalog.SearchResult{
		Medicines:  medicines,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: catalog.TotalPages(total, perPage),
	}
}

// columnComparator orders medicines by a sortable column. Unknown columns fall
// back to brand_name. Text compares case-insensitively, a missing price sorts lowest.
func columnComparator(column string) func(a, b catalog.Medicine) int {
	text := func(field func(catalog.Medicine) string) func(a, b catalog.Medicine) int {
		return func(a, b catalog.Medicine) int {
			return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
		}
	}

	switch column {
	case "id":
		return func(a, b catalog.Medicine) int { return cmp.Compare(a.ID, b.ID) }
	case "price":
		return func(a, b catalog.Medicine) int {
			switch {
			case a.Price == nil && b.Price == nil:
				return 0
			case a.Price == nil:
				return -1
			case b.Price == nil:
				return 1
			}
			return cmp.Compare(*a.Price, *b.Price)
		}
	case "generic":
		return text(func(m catalog.Medicine) string { return m.Generic })
	case "type":
		return text(func(m catalog.Medicine) string { return m.Type })
	case "dosage_form":
		return text(func(m catalog.Medicine) string { return m.DosageForm })
	case "strength":
		return text(func(m catalog.Medicine) string { return m.Strength })
	case "manufacturer":
		return text(func(m catalog.Medicine) string { return m.Manufacturer })
	default:
		return text(func(m catalog.Medicine) string { return m.BrandName })
	}
}

// Statistics computes the aggregate numbers of the catalog. Average and range
// only consider medicines that have a price.
func (s *Store) Statistics() catalog.Statistics {
	medicines := s.snapshot().medicines

	manufacturers := make(map[string]struct{})
	types := make(map[string]struct{})
	forms := make(map[string]struct{})

	var (
		priced   int
		sum      float64
		minPrice float64
		maxPrice float64
	)

	for _, m := range medicines {
		if m.Manufacturer != "" {
			manufacturers[m.Manufacturer] = struct{}{}
		}
		if m.Type != "" {
			types[m.Type] = struct{}{}
		}
		if m.DosageForm != "" {
			forms[m.DosageForm] = struct{}{}
		}
		if m.Price == nil {
			continue
		}

		p := *m.Price
		if priced == 0 || p < minPrice {
			minPrice = p
		}
		if priced == 0 || p > maxPrice {
			maxPrice = p
		}
		sum += p
		priced++
	}

	stats := catalog.Statistics{
		TotalMedicines:     len(medicines),
		TotalManufacturers: len(manufacturers),
		TotalTypes:         len(types),
		TotalDosageForms:   len(forms),
		PriceRange:         catalog.PriceRange{Min: minPrice, Max: maxPrice},
	}
	if priced > 0 {
		stats.AveragePrice = sum / float64(priced)
	}

	return stats
}

// FilterOptions returns the sorted distinct non-empty types and dosage forms
func (s *Store) FilterOptions() catalog.FilterOptions {
	types := make(map[string]struct{})
	forms := make(map[string]struct{})

	for _, m := range s.snapshot().medicines {
		if m.Type != "" {
			types[m.Type] = struct{}{}
		}
		if m.DosageForm != "" {
			forms[m.DosageForm] = struct{}{}
		}
	}

	return catalog.FilterOptions{
		Types:       sortedKeys(types),
		DosageForms: sortedKeys(forms),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
