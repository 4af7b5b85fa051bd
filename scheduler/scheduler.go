// Package scheduler reloads the catalog from its source on a daily schedule
// and watches the age of the served data. Edits made through the API are kept
// by the data store across reloads.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// DefaultReloadAt is used when no reload times are configured
const DefaultReloadAt = "06:00;18:00"

// staleAfter is the data age that triggers a warning from the monitor
const staleAfter = 25 * time.Hour

// Scheduler handles catalog reloads and data age monitoring
type Scheduler struct {
	dataStore interfaces.DataStore
	importer  interfaces.Importer
	validator interfaces.DataValidator
	reloadAt  string
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a new scheduler reloading at the given "HH:MM;HH:MM" times
func NewScheduler(dataStore interfaces.DataStore, importer interfaces.Importer, validator interfaces.DataValidator, reloadAt string) *Scheduler {
	if reloadAt == "" {
		reloadAt = DefaultReloadAt
	}
	return &Scheduler{
		dataStore: dataStore,
		importer:  importer,
		validator: validator,
		reloadAt:  reloadAt,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start loads the catalog once, then schedules reloads and health monitoring
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateData(context.Background()); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.reloadAt).Do(func() {
		if err := s.updateData(context.Background()); err != nil {
			logging.Error("Failed to update data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Catalog reloads scheduled", "at", s.reloadAt, "next", NextReload(time.Now(), s.reloadAt).Format(time.RFC3339))

	s.startHealthMonitoring(time.Hour)

	return nil
}

// Stop stops the scheduler and the health monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stop) })
}

// updateData performs a complete catalog reload
func (s *Scheduler) updateData(ctx context.Context) error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting catalog reload", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	medicines, err := s.importer.Load(ctx)
	if err != nil {
		metrics.RecordReload(0, time.Since(start), err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	report := s.validator.ReportDataQuality(medicines)

	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate ids detected",
			"total", len(report.DuplicateIDs),
			"id_list", report.DuplicateIDs,
		)
	}

	if len(report.DuplicateBrandIDs) > 0 {
		logging.Warn("Duplicate brand ids detected",
			"total", len(report.DuplicateBrandIDs),
			"brand_id_list", report.DuplicateBrandIDs,
		)
	}

	if report.MissingBrandNames > 0 {
		logging.Warn("Medicines without brand name",
			"count", report.MissingBrandNames,
			"id_list", report.MissingBrandNameIDs,
		)
	}

	if report.NegativePrices > 0 {
		logging.Warn("Medicines with negative price",
			"count", report.NegativePrices,
			"id_list", report.NegativePriceIDs,
		)
	}

	if report.MissingPrices > 0 {
		logging.Info("Medicines without price", "count", report.MissingPrices)
	}

	// Atomic swap, user edits are re-applied by the store
	s.dataStore.ReplaceAll(medicines)

	elapsed := time.Since(start)
	metrics.RecordReload(s.dataStore.Count(), elapsed, nil)
	logging.Info("Catalog reload completed", "duration", elapsed.String(), "medicine_count", s.dataStore.Count())

	return nil
}

// startHealthMonitoring warns when the catalog has not been reloaded for too long
func (s *Scheduler) startHealthMonitoring(every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > staleAfter {
					logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
				}
			}
		}
	}()
}

// NextReload returns the first reload time strictly after now. Malformed
// entries are skipped; without any valid entry the result is a day after now.
func NextReload(now time.Time, reloadAt string) time.Time {
	var next time.Time

	for _, entry := range strings.Split(reloadAt, ";") {
		at, err := time.Parse("15:04", strings.TrimSpace(entry))
		if err != nil {
			continue
		}

		candidate := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	if next.IsZero() {
		return now.Add(24 * time.Hour)
	}
	return next
}
