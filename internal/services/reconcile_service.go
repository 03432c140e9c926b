package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"recon945/internal/decode"
	"recon945/internal/exporter"
	"recon945/internal/infrastructure"
	"recon945/internal/recon"
	"recon945/internal/table"
)

// ReconcileResult is the outcome of a reconciliation run: the workbook
// bytes plus the download filename the caller should use.
type ReconcileResult struct {
	Filename string
	Data     []byte
	Rows     int
}

// ReconcileService decodes the three uploaded reports, runs the
// reconciliation pipeline, and renders the result as an xlsx workbook.
type ReconcileService struct {
	pipeline *recon.Pipeline
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewReconcileService creates a new reconcile service. metrics may be nil.
func NewReconcileService(pipeline *recon.Pipeline, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		pipeline: pipeline,
		logger:   infrastructure.WithComponent(logger, "reconcile_service"),
		metrics:  metrics,
	}
}

// Reconcile runs the full report reconciliation on raw upload bytes.
// The three payloads are decoded concurrently; decoding and pipeline
// errors surface as *decode.DecodeError and *recon.MissingColumnError
// so the transport layer can map them to client errors.
func (s *ReconcileService) Reconcile(ctx context.Context, shipmentHistory, edib2bi, edi940 []byte) (*ReconcileResult, error) {
	start := time.Now()

	var shipmentTable, b2biTable, edi940Table *table.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shipmentTable, err = s.decodeReport(gctx, recon.ShipmentHistoryLabel, shipmentHistory)
		return err
	})
	g.Go(func() error {
		var err error
		b2biTable, err = s.decodeReport(gctx, recon.EDIB2BiLabel, edib2bi)
		return err
	})
	g.Go(func() error {
		var err error
		edi940Table, err = s.decodeReport(gctx, recon.EDI940Label, edi940)
		return err
	})
	if err := g.Wait(); err != nil {
		infrastructure.RecordReconcileMetrics(ctx, s.metrics, time.Since(start), 0, 0, err)
		return nil, err
	}

	inputRows := int64(shipmentTable.NumRows() + b2biTable.NumRows() + edi940Table.NumRows())

	result, filename, err := s.pipeline.Reconcile(shipmentTable, b2biTable, edi940Table)
	if err != nil {
		s.logger.ErrorContext(ctx, "reconciliation failed",
			slog.String("error", err.Error()))
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordReconcileMetrics(ctx, s.metrics, time.Since(start), 0, 0, err)
		return nil, err
	}

	data, err := exporter.WriteXLSX(result)
	if err != nil {
		infrastructure.RecordReconcileMetrics(ctx, s.metrics, time.Since(start), 0, 0, err)
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	duration := time.Since(start)
	infrastructure.RecordReconcileMetrics(ctx, s.metrics, duration, inputRows, int64(result.NumRows()), nil)

	s.logger.InfoContext(ctx, "reconciliation completed",
		slog.String("filename", filename),
		slog.Int64("input_rows", inputRows),
		slog.Int("output_rows", result.NumRows()),
		slog.Duration("duration", duration))

	return &ReconcileResult{
		Filename: filename,
		Data:     data,
		Rows:     result.NumRows(),
	}, nil
}

func (s *ReconcileService) decodeReport(ctx context.Context, name string, data []byte) (*table.Table, error) {
	t, err := decode.Decode(name, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "report decode failed",
			slog.String("report", name),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		infrastructure.RecordDecodeFailure(ctx, s.metrics, name)
		return nil, err
	}

	s.logger.DebugContext(ctx, "report decoded",
		slog.String("report", name),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumColumns()))
	return t, nil
}
