package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/medicine-inventory/interfaces"
)

// mockHealthDataStore only implements what the health checker reads
type mockHealthDataStore struct {
	interfaces.DataStore
	count       int
	lastUpdated time.Time
	isUpdating  bool
}

func (m *mockHealthDataStore) Count() int {
	return m.count
}

func (m *mockHealthDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *mockHealthDataStore) IsUpdating() bool {
	return m.isUpdating
}

var fixedNow = time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestChecker(store *mockHealthDataStore) *HealthCheckerImpl {
	h := NewHealthChecker(store, "06:00;18:00").(*HealthCheckerImpl)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestNewHealthChecker(t *testing.T) {
	checker := NewHealthChecker(&mockHealthDataStore{}, "")

	if checker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}

	if _, ok := checker.(*HealthCheckerImpl); !ok {
		t.Error("NewHealthChecker should return *HealthCheckerImpl")
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockHealthDataStore
		wantStatus string
		wantCode   int
	}{
		{
			name:       "healthy",
			store:      &mockHealthDataStore{count: 10, lastUpdated: fixedNow.Add(-2 * time.Hour)},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "healthy while updating",
			store:      &mockHealthDataStore{count: 10, lastUpdated: fixedNow.Add(-30 * time.Hour), isUpdating: true},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "degraded old data",
			store:      &mockHealthDataStore{count: 10, lastUpdated: fixedNow.Add(-49 * time.Hour)},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "unhealthy empty catalog",
			store:      &mockHealthDataStore{count: 0, lastUpdated: fixedNow},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "unhealthy never loaded",
			store:      &mockHealthDataStore{},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data, code := newTestChecker(tt.store).HealthCheck()

			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("httpStatus = %d, want %d", code, tt.wantCode)
			}
			if data["medicines"] != tt.store.count {
				t.Errorf("medicines = %v, want %d", data["medicines"], tt.store.count)
			}
			if data["is_updating"] != tt.store.isUpdating {
				t.Errorf("is_updating = %v, want %v", data["is_updating"], tt.store.isUpdating)
			}
		})
	}
}

func TestHealthCheck_DataFields(t *testing.T) {
	store := &mockHealthDataStore{count: 3, lastUpdated: fixedNow.Add(-90 * time.Minute)}
	_, data, _ := newTestChecker(store).HealthCheck()

	if data["data_age_hours"] != 1.5 {
		t.Errorf("data_age_hours = %v, want 1.5", data["data_age_hours"])
	}

	if data["last_update"] != store.lastUpdated.Format(time.RFC3339) {
		t.Errorf("last_update = %v", data["last_update"])
	}

	wantNext := time.Date(2025, 10, 14, 18, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if data["next_update"] != wantNext {
		t.Errorf("next_update = %v, want %s", data["next_update"], wantNext)
	}

	for _, key := range []string{"goroutines", "memory"} {
		if _, ok := data[key]; ok {
			t.Errorf("health data should not expose system field %q", key)
		}
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	checker := newTestChecker(&mockHealthDataStore{})

	next := checker.CalculateNextUpdate()
	if !next.After(fixedNow) {
		t.Errorf("next update %v should be after %v", next, fixedNow)
	}
	if next.Hour() != 18 || next.Minute() != 0 {
		t.Errorf("next update = %v, want 18:00", next)
	}
}

func BenchmarkHealthCheck(b *testing.B) {
	checker := newTestChecker(&mockHealthDataStore{count: 1000, lastUpdated: fixedNow})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = checker.HealthCheck()
	}
}
