package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/registrar-controller/interfaces"
)

// MultiStore replicates commitment records to several stores and reads them
// back from the first store that has them, in configuration order.
type MultiStore struct {
	stores []interfaces.CommitmentStore
	log    *slog.Logger
}

// NewMultiStore creates a replicated store over stores.
func NewMultiStore(stores []interfaces.CommitmentStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStore{
		stores: stores,
		log:    logger,
	}
}

// Load returns the record from the first available store that has it.
func (m *MultiStore) Load(ctx context.Context, name string) (*interfaces.CommitmentRecord, error) {
	start := time.Now()
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store", store.LocationURI()))
			continue
		}

		record, err := store.Load(ctx, name)
		if err == nil {
			m.log.Debug("Loaded commitment record",
				slog.String("store", store.LocationURI()),
				slog.String("name", name),
				slog.Duration("duration", time.Since(start)))
			return record, nil
		}
		if !errors.Is(err, interfaces.ErrRecordNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("no store could load %s: %w", name, errors.Join(errs...))
	}
	return nil, interfaces.ErrRecordNotFound
}

// Save writes the record to every available store. It fails only when no
// store accepted the record.
func (m *MultiStore) Save(ctx context.Context, record *interfaces.CommitmentRecord) error {
	var saved int
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store", store.LocationURI()))
			continue
		}

		if err := store.Save(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
			m.log.Warn("Failed to save to store",
				slog.String("store", store.LocationURI()),
				"err", err)
			continue
		}
		saved++
	}

	if saved == 0 {
		m.log.Error("All stores failed to save record",
			slog.String("name", record.Name),
			slog.Int("failed_stores", len(errs)))
		if len(errs) == 0 {
			return interfaces.ErrBackendUnavailable
		}
		return fmt.Errorf("all stores failed to save %s: %w", record.Name, errors.Join(errs...))
	}
	return nil
}

// Delete removes the record from every store.
func (m *MultiStore) Delete(ctx context.Context, name string) error {
	var errs []error
	for _, store := range m.stores {
		if err := store.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
		}
	}
	return errors.Join(errs...)
}

// Available checks if any store is available.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

// LocationURI returns the locations of all stores.
func (m *MultiStore) LocationURI() string {
	var locations []string
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
