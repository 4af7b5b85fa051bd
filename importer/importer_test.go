package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const sampleCSV = `brand id,brand_name,type,slug,dosage_form,generic,strength,manufacturer,package_container,Package Size
4077,A-Cold,allopathic,a-coldsyrup4-mg5-ml,Syrup,Bromhexine Hydrochloride,4 mg/5 ml,ACME Laboratories Ltd.,100 ml bottle: ৳ 40.12,100 ml
4006,A-Cof,allopathic,a-cofsyrup,Syrup,Dextromethorphan,"(10 mg+30 mg+1.25 mg)/5 ml",ACME Laboratories Ltd.,100 ml bottle: ৳ 100.00,100 ml
6174,A-Clox,allopathic,a-cloxinjection500-mgvial,Injection,Cloxacillin Sodium,500 mg/vial,ACME Laboratories Ltd.,500 mg vial,500 mg
`

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"brand id", "brand_id"},
		{"Package Size", "package_size"},
		{"  Brand_Name ", "brand_name"},
		{"dosage-form", "dosage_form"},
		{"price", "price"},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.in); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100 ml bottle: ৳ 40.12", 40.12, true},
		{"৳40", 40, true},
		{"10 x 10: ৳ 120.00 (strip)", 120, true},
		{"500 mg vial", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got := ExtractPrice(tt.in)
		if (got != nil) != tt.ok {
			t.Errorf("ExtractPrice(%q) = %v, want ok=%v", tt.in, got, tt.ok)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("ExtractPrice(%q) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	medicines, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if len(medicines) != 3 {
		t.Fatalf("Expected 3 medicines, got %d", len(medicines))
	}

	first := medicines[0]
	if first.ID != 4077 || first.BrandID == nil || *first.BrandID != 4077 {
		t.Errorf("Expected id and brand_id 4077, got %+v", first)
	}
	if first.PackageSize != "100 ml" {
		t.Errorf("Package Size column not mapped, got %q", first.PackageSize)
	}
	if first.Price == nil || *first.Price != 40.12 {
		t.Errorf("Expected price extracted from the package, got %v", first.Price)
	}

	if medicines[1].Strength != "(10 mg+30 mg+1.25 mg)/5 ml" {
		t.Errorf("Quoted field not parsed, got %q", medicines[1].Strength)
	}

	if medicines[2].Price != nil {
		t.Errorf("Expected no price without a taka amount, got %v", *medicines[2].Price)
	}
}

func TestParsePriceColumnWins(t *testing.T) {
	input := "brand_name,package_container,price\nNapa,10 x 10: ৳ 120.00,1.5\nAce,,bad\n"

	medicines, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if medicines[0].Price == nil || *medicines[0].Price != 1.5 {
		t.Errorf("Expected the price column to win, got %v", medicines[0].Price)
	}
	if medicines[1].Price != nil {
		t.Errorf("Unparsable price should be left empty, got %v", *medicines[1].Price)
	}
}

func TestParseAssignsIDs(t *testing.T) {
	input := strings.Join([]string{
		"id,brand_id,brand_name",
		",10,Shared A",
		",10,Shared B",
		",2,Unique",
		"1,,Explicit",
		",,No brand id",
		"1,,Explicit duplicate",
	}, "\n")

	medicines, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := map[string]int{
		"Shared A":           3,
		"Shared B":           4,
		"Unique":             2,
		"Explicit":           1,
		"No brand id":        5,
		"Explicit duplicate": 6,
	}

	seen := make(map[int]bool)
	for _, m := range medicines {
		if seen[m.ID] {
			t.Errorf("Duplicate id %d", m.ID)
		}
		seen[m.ID] = true
		if m.ID != want[m.BrandName] {
			t.Errorf("%s got id %d, want %d", m.BrandName, m.ID, want[m.BrandName])
		}
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		medicines, err := Parse(strings.NewReader(""))
		if err != nil || len(medicines) != 0 {
			t.Errorf("Parse(\"\") = %v, %v", medicines, err)
		}
	})

	t.Run("missing brand_name column", func(t *testing.T) {
		_, err := Parse(strings.NewReader("generic,type\nx,y\n"))
		if !errors.Is(err, ErrMissingColumn) {
			t.Errorf("Expected ErrMissingColumn, got %v", err)
		}
	})

	t.Run("short rows and blank lines", func(t *testing.T) {
		medicines, err := Parse(strings.NewReader("brand_name,generic,type\nNapa\n,,\nAce,Paracetamol,allopathic\n"))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if len(medicines) != 2 {
			t.Fatalf("Expected 2 medicines, got %d", len(medicines))
		}
		if medicines[0].Generic != "" || medicines[1].Generic != "Paracetamol" {
			t.Errorf("Unexpected medicines: %+v", medicines)
		}
	})

	t.Run("spreadsheet style brand id", func(t *testing.T) {
		medicines, err := Parse(strings.NewReader("brand_id,brand_name\n4077.0,A-Cold\n"))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if medicines[0].ID != 4077 {
			t.Errorf("Expected id 4077, got %d", medicines[0].ID)
		}
	})
}

func TestDecodeISO88591(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("brand_name,manufacturer\nCafé,Laboratoire Génériques\n")
	if err != nil {
		t.Fatal(err)
	}

	medicines, err := Parse(decode([]byte(latin1)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if medicines[0].BrandName != "Café" || medicines[0].Manufacturer != "Laboratoire Génériques" {
		t.Errorf("ISO-8859-1 not decoded: %+v", medicines[0])
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	medicines, err := Parse(decode([]byte("\xef\xbb\xbfbrand_name\nNapa\n")))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(medicines) != 1 || medicines[0].BrandName != "Napa" {
		t.Errorf("BOM not stripped: %+v", medicines)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medicines.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	imp := NewCSVImporter(path)
	medicines, err := imp.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(medicines) != 3 {
		t.Errorf("Expected 3 medicines, got %d", len(medicines))
	}
}

func TestLoadMissingFile(t *testing.T) {
	imp := NewCSVImporter(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := imp.Load(context.Background()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/medicines.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	imp := NewCSVImporter(srv.URL+"/medicines.csv", WithHTTPClient(srv.Client()))
	medicines, err := imp.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(medicines) != 3 {
		t.Errorf("Expected 3 medicines, got %d", len(medicines))
	}

	missing := NewCSVImporter(srv.URL+"/other.csv", WithHTTPClient(srv.Client()))
	if _, err := missing.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected a status error, got %v", err)
	}
}
