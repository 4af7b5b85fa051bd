package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
)

// Messages shown in place of table rows.
const (
	EmptyMessage   = "No medicines found"
	ErrorMessage   = "Error loading medicines"
	LoadingMessage = "Loading medicines..."
)

const (
	maxVisiblePages = 5
	notAvailable    = "N/A"
	currencySymbol  = "৳"
)

// Badge is the visual category of a medicine type.
type Badge string

const (
	BadgeAllopathic  Badge = "allopathic"
	BadgeHerbal      Badge = "herbal"
	BadgeAyurvedic   Badge = "ayurvedic"
	BadgeHomeopathic Badge = "homeopathic"
	BadgeNeutral     Badge = "neutral"
)

// TypeBadge maps a medicine type to its badge, ignoring case.
func TypeBadge(medicineType string) Badge {
	switch b := Badge(strings.ToLower(strings.TrimSpace(medicineType))); b {
	case BadgeAllopathic, BadgeHerbal, BadgeAyurvedic, BadgeHomeopathic:
		return b
	default:
		return BadgeNeutral
	}
}

// Row is one table row ready for display.
type Row struct {
	ID           int
	BrandName    string
	Slug         string
	Generic      string
	Type         string
	Badge        Badge
	DosageForm   string
	Strength     string
	Manufacturer string
	Price        string
}

// Pagination describes the pager under the table.
type Pagination struct {
	Current      int
	TotalPages   int
	Pages        []int
	PrevDisabled bool
	NextDisabled bool
}

// Summary is the "showing X to Y of N" line.
type Summary struct {
	From  int
	To    int
	Total int
}

func (s Summary) String() string {
	return fmt.Sprintf("Showing %d to %d of %d results", s.From, s.To, s.Total)
}

// Rendering is everything the view draws for one result page.
type Rendering struct {
	State      QueryState
	Rows       []Row
	Message    string // set instead of rows when there is nothing to show
	Count      string
	Pagination Pagination
	Summary    Summary
}

// BuildRendering derives the view of page as produced by state.
func BuildRendering(state QueryState, page ResultPage) Rendering {
	current := page.Page
	if current < 1 {
		current = state.Page
	}

	r := Rendering{
		State:      state,
		Count:      ResultsCount(page.Total),
		Pagination: BuildPagination(current, page.TotalPages(state.PageSize)),
		Summary:    BuildSummary(current, state.PageSize, page.Total),
	}

	if len(page.Records) == 0 {
		r.Message = EmptyMessage
		return r
	}

	r.Rows = make([]Row, 0, len(page.Records))
	for _, m := range page.Records {
		r.Rows = append(r.Rows, BuildRow(m))
	}
	return r
}

// BuildRow formats a medicine for the table.
func BuildRow(m catalog.Medicine) Row {
	return Row{
		ID:           m.ID,
		BrandName:    orNA(m.BrandName),
		Slug:         m.Slug,
		Generic:      orNA(m.Generic),
		Type:         orNA(m.Type),
		Badge:        TypeBadge(m.Type),
		DosageForm:   orNA(m.DosageForm),
		Strength:     orNA(m.Strength),
		Manufacturer: orNA(m.Manufacturer),
		Price:        FormatPrice(m.Price),
	}
}

// FormatPrice renders a price with two decimals, or N/A when unknown or zero.
func FormatPrice(price *float64) string {
	if price == nil || *price == 0 {
		return notAvailable
	}
	return currencySymbol + strconv.FormatFloat(*price, 'f', 2, 64)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// ResultsCount returns e.g. "1 medicine found" or "42 medicines found".
func ResultsCount(total int) string {
	if total == 1 {
		return "1 medicine found"
	}
	return fmt.Sprintf("%d medicines found", total)
}

// PageWindow returns up to five page numbers centered on current and
// clamped to [1, totalPages]. It is empty when there are no pages.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}

	start := max(1, current-maxVisiblePages/2)
	end := min(totalPages, start+maxVisiblePages-1)
	if end-start+1 < maxVisiblePages {
		start = max(1, end-maxVisiblePages+1)
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// BuildPagination computes the pager for current out of totalPages.
func BuildPagination(current, totalPages int) Pagination {
	return Pagination{
		Current:      current,
		TotalPages:   totalPages,
		Pages:        PageWindow(current, totalPages),
		PrevDisabled: current <= 1,
		NextDisabled: current >= totalPages,
	}
}

// BuildSummary computes the shown record range. From and To are 0 for an
// empty result and for a page past the last record.
func BuildSummary(current, pageSize, total int) Summary {
	if total <= 0 {
		return Summary{}
	}
	from := (current-1)*pageSize + 1
	if from > total {
		return Summary{Total: total}
	}
	return Summary{
		From:  from,
		To:    min(current*pageSize, total),
		Total: total,
	}
}

// CounterDuration is how long statistics counters take to reach their value.
const CounterDuration = 2 * time.Second

// CounterValue is the value an animated counter shows after elapsed,
// growing linearly from 0 to target over duration.
func CounterValue(target float64, elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed >= duration {
		return int(math.Floor(target))
	}
	if elapsed <= 0 {
		return 0
	}
	progress := float64(elapsed) / float64(duration)
	return int(math.Floor(target * progress))
}
