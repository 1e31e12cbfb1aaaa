package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/growmetrics/sheetimport/internal/mapping"
	"github.com/growmetrics/sheetimport/internal/source"
)

// maxSkipSamples caps per-row skip detail in the result warnings.
const maxSkipSamples = 20

// Service orchestrates preview and commit. Preview is read-only and
// lock-free; commit runs the full pipeline under the org's import lock
// and applies all writes as one unit.
type Service struct {
	connector source.Connector
	store     Store
	locks     *OrgLocks
	log       *slog.Logger

	sampleRows      int
	defaultCurrency string
}

// ServiceOptions configure the pipeline bounds and defaults.
type ServiceOptions struct {
	SampleRows      int    // classifier sample window; default 50
	DefaultCurrency string // org default ISO-4217 code; default "USD"
}

// NewService wires the pipeline together.
func NewService(connector source.Connector, store Store, log *slog.Logger, opts ServiceOptions) *Service {
	if opts.SampleRows <= 0 {
		opts.SampleRows = 50
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	return &Service{
		connector:       connector,
		store:           store,
		locks:           NewOrgLocks(),
		log:             log,
		sampleRows:      opts.SampleRows,
		defaultCurrency: opts.DefaultCurrency,
	}
}

// Locks exposes the org lock registry for shutdown draining.
func (s *Service) Locks() *OrgLocks { return s.locks }

// Preview fetches the source and classifies its columns. No entity is
// written; calling it any number of times is safe, including while a
// commit for the same org is in flight.
func (s *Service) Preview(ctx context.Context, orgID, sourceRef string) (*mapping.MappingResult, error) {
	sheet, err := s.connector.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, err
	}

	result := mapping.Classify(sheet.Header, sheet.Sample(s.sampleRows), len(sheet.Rows))

	s.log.Info("preview complete",
		slog.String("org_id", orgID),
		slog.Int("rows", result.RowCount),
		slog.Int("columns", result.ColumnCount),
		slog.Int("detected", len(result.Detections())),
	)
	return result, nil
}

// Commit runs the full import pipeline for one org as a single logical
// transaction. A second concurrent commit for the same org fails fast
// with ErrImportInProgress. overrides optionally force header→field
// assignments on top of the classifier.
func (s *Service) Commit(ctx context.Context, orgID, sourceRef string, overrides map[string]mapping.FieldTag) (*ImportResult, error) {
	if !s.locks.TryLock(orgID) {
		return nil, ErrImportInProgress
	}
	defer s.locks.Unlock(orgID)

	importID := uuid.New()
	log := s.log.With(slog.String("import_id", importID.String()), slog.String("org_id", orgID))
	started := time.Now()

	sheet, err := s.connector.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, err
	}

	result := mapping.Classify(sheet.Header, sheet.Sample(s.sampleRows), len(sheet.Rows))
	if len(overrides) > 0 {
		if err := mapping.ApplyOverrides(result, overrides); err != nil {
			return nil, err
		}
	}

	if len(result.Detections()) == 0 {
		log.Warn("no recognizable fields detected, importing nothing")
		return &ImportResult{
			Success:  true,
			Message:  "no recognizable fields detected; nothing imported",
			Warnings: result.Warnings,
		}, nil
	}

	mapper := &Mapper{DefaultCurrency: s.defaultCurrency}
	outcome := mapper.MapRows(orgID, result, sheet.Rows)

	batch, counts, err := Merge(ctx, s.store, orgID, outcome.Pairs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if !batch.Empty() {
		if err := s.store.Apply(ctx, batch); err != nil {
			return nil, fmt.Errorf("apply import: %w", err)
		}
	}

	res := &ImportResult{
		Success:                  true,
		CustomersImported:        counts.CustomersImported,
		OrdersImported:           counts.OrdersImported,
		CustomersUpdated:         counts.CustomersUpdated,
		OrdersSkippedAsDuplicate: counts.OrdersSkippedAsDuplicate,
		RowsSkipped:              len(outcome.Skips),
		Warnings:                 append([]string(nil), result.Warnings...),
	}
	if outcome.CellFailures > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d cell(s) failed normalization and were left blank", outcome.CellFailures))
	}
	for i, skip := range outcome.Skips {
		if i == maxSkipSamples {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("and %d more skipped row(s)", len(outcome.Skips)-maxSkipSamples))
			break
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("row %d skipped: %s", skip.Row, skip.Reason))
	}
	res.Message = fmt.Sprintf("imported %d customer(s) and %d order(s)",
		counts.CustomersImported, counts.OrdersImported)

	log.Info("commit complete",
		slog.Int("customers_imported", counts.CustomersImported),
		slog.Int("customers_updated", counts.CustomersUpdated),
		slog.Int("orders_imported", counts.OrdersImported),
		slog.Int("orders_skipped_duplicate", counts.OrdersSkippedAsDuplicate),
		slog.Int("rows_skipped", len(outcome.Skips)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}
