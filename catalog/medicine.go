// Package catalog holds the medicine catalog entities and the query/response
// shapes shared by the inventory viewer and the catalog API.
package catalog

// Medicine is one catalog entry.
type Medicine struct {
	ID               int      `json:"id"`
	BrandID          *int     `json:"brand_id"`
	BrandName        string   `json:"brand_name"`
	Type             string   `json:"type"`
	Slug             string   `json:"slug"`
	DosageForm       string   `json:"dosage_form"`
	Generic          string   `json:"generic"`
	Strength         string   `json:"strength"`
	Manufacturer     string   `json:"manufacturer"`
	PackageContainer string   `json:"package_container"`
	PackageSize      string   `json:"package_size"`
	Price            *float64 `json:"price"`
}

// PriceOrZero returns the price, or 0 when the medicine has none.
func (m Medicine) PriceOrZero() float64 {
	if m.Price == nil {
		return 0
	}
	return *m.Price
}

// MedicineUpdate carries the fields of a create or update request.
// Nil fields are left untouched by an update.
type MedicineUpdate struct {
	BrandName    *string  `json:"brand_name,omitempty"`
	Generic      *string  `json:"generic,omitempty"`
	Type         *string  `json:"type,omitempty"`
	DosageForm   *string  `json:"dosage_form,omitempty"`
	Strength     *string  `json:"strength,omitempty"`
	Manufacturer *string  `json:"manufacturer,omitempty"`
	Price        *float64 `json:"price,omitempty"`
}

// Apply returns a copy of m with every non-nil field of u written over it.
func (u MedicineUpdate) Apply(m Medicine) Medicine {
	if u.BrandName != nil {
		m.BrandName = *u.BrandName
	}
	if u.Generic != nil {
		m.Generic = *u.Generic
	}
	if u.Type != nil {
		m.Type = *u.Type
	}
	if u.DosageForm != nil {
		m.DosageForm = *u.DosageForm
	}
	if u.Strength != nil {
		m.Strength = *u.Strength
	}
	if u.Manufacturer != nil {
		m.Manufacturer = *u.Manufacturer
	}
	if u.Price != nil {
		p := *u.Price
		m.Price = &p
	}
	return m
}

// FilterOptions lists the distinct values offered by the type and dosage form filters.
type FilterOptions struct {
	Types       []string `json:"types"`
	DosageForms []string `json:"dosage_forms"`
}

// PriceRange is the lowest and highest known price.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Statistics are the aggregate numbers shown above the inventory table.
type Statistics struct {
	TotalMedicines     int        `json:"total_medicines"`
	TotalManufacturers int        `json:"total_manufacturers"`
	TotalTypes         int        `json:"total_types"`
	TotalDosageForms   int        `json:"total_dosage_forms"`
	AveragePrice       float64    `json:"average_price"`
	PriceRange         PriceRange `json:"price_range"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	Medicines  []Medicine `json:"medicines"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}
