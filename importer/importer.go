// Package importer loads the medicine catalog from a CSV file or URL.
// Sources may be UTF-8 or ISO-8859-1; header names are normalized so exports
// from different tools ("brand id", "Package Size") map to the same columns.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time check to ensure CSVImporter implements Importer
var _ interfaces.Importer = (*CSVImporter)(nil)

// maxSourceSize caps how much of a source is read into memory
const maxSourceSize = 256 << 20

// pricePattern finds prices such as "৳ 40.12" or "৳40" inside package descriptions
var pricePattern = regexp.MustCompile(`৳\s*(\d+(?:\.\d{2})?)`)

// ErrMissingColumn is returned when the source has no brand_name column
var ErrMissingColumn = errors.New("missing required column")

// CSVImporter reads the catalog from a local path or an http(s) URL
type CSVImporter struct {
	source string
	client *http.Client
}

// Option configures a CSVImporter
type Option func(*CSVImporter)

// WithHTTPClient replaces the client used for URL sources
func WithHTTPClient(c *http.Client) Option {
	return func(i *CSVImporter) {
		i.client = c
	}
}

// NewCSVImporter creates an importer for the given path or URL
func NewCSVImporter(source string, opts ...Option) *CSVImporter {
	i := &CSVImporter{
		source: source,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Source returns the configured path or URL
func (i *CSVImporter) Source() string {
	return i.source
}

// Load reads and parses every medicine of the source
func (i *CSVImporter) Load(ctx context.Context) ([]catalog.Medicine, error) {
	body, err := i.read(ctx)
	if err != nil {
		return nil, err
	}

	medicines, err := Parse(decode(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", i.source, err)
	}

	logging.Debug("Catalog source parsed", "source", i.source, "medicines", len(medicines))
	return medicines, nil
}

func (i *CSVImporter) read(ctx context.Context) ([]byte, error) {
	if isURL(i.source) {
		return i.download(ctx)
	}

	cleanPath := filepath.Clean(i.source)
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cleanPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close catalog file", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(f, maxSourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cleanPath, err)
	}
	return body, nil
}

func (i *CSVImporter) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", i.source, err)
	}

	response, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", i.source, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", i.source, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxSourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// decode returns a UTF-8 reader over body. Sources that are not valid UTF-8
// are read as ISO-8859-1.
func decode(body []byte) io.Reader {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))
}

// NormalizeHeader maps a column title to its field name: trimmed, lowercased,
// with runs of spaces or dashes turned into one underscore.
func NormalizeHeader(h string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(h)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

// ExtractPrice returns the first taka price found in s, or nil
func ExtractPrice(s string) *float64 {
	match := pricePattern.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	p, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &p
}

type row struct {
	medicine catalog.Medicine
	id       int
}

// Parse reads CSV records into medicines and assigns their ids.
//
// A record keeps its id column when set and unique. Otherwise its brand_id is
// used when no other record shares it, and the rest get the next free ids in
// file order.
func Parse(r io.Reader) ([]catalog.Medicine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []catalog.Medicine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	if _, ok := columns["brand_name"]; !ok {
		return nil, fmt.Errorf("%w: brand_name", ErrMissingColumn)
	}

	var rows []row
	brandIDCount := make(map[int]int)
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		get := func(name string) string {
			if i, ok := columns[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		m := catalog.Medicine{
			BrandName:        get("brand_name"),
			Type:             get("type"),
			Slug:             get("slug"),
			DosageForm:       get("dosage_form"),
			Generic:          get("generic"),
			Strength:         get("strength"),
			Manufacturer:     get("manufacturer"),
			PackageContainer: get("package_container"),
			PackageSize:      get("package_size"),
		}

		if brandID, ok := parseInt(get("brand_id")); ok {
			m.BrandID = &brandID
			brandIDCount[brandID]++
		}

		if raw := get("price"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				logging.Warn("Ignoring unparsable price", "line", line, "price", raw)
			} else {
				m.Price = &p
			}
		}
		if m.Price == nil {
			m.Price = ExtractPrice(m.PackageContainer)
		}

		id, _ := parseInt(get("id"))
		rows = append(rows, row{medicine: m, id: id})
	}

	return assignIDs(rows, brandIDCount), nil
}

func assignIDs(rows []row, brandIDCount map[int]int) []catalog.Medicine {
	used := make(map[int]bool, len(rows))
	var pending []int

	for i := range rows {
		r := &rows[i]
		switch {
		case r.id > 0 && !used[r.id]:
		case r.medicine.BrandID != nil && *r.medicine.BrandID > 0 &&
			brandIDCount[*r.medicine.BrandID] == 1 && !used[*r.medicine.BrandID]:
			r.id = *r.medicine.BrandID
		default:
			r.id = 0
			pending = append(pending, i)
			continue
		}
		used[r.id] = true
	}

	next := 1
	for _, i := range pending {
		for used[next] {
			next++
		}
		rows[i].id = next
		used[next] = true
	}

	medicines := make([]catalog.Medicine, len(rows))
	for i, r := range rows {
		r.medicine.ID = r.id
		medicines[i] = r.medicine
	}
	return medicines
}

// parseInt accepts "4077" as well as spreadsheet-style "4077.0"
func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
