package recon

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recon945/internal/table"
)

// Report labels as the upstream systems name their exports. They appear in
// MissingColumnError messages so an operator can tell which upload was bad.
const (
	ShipmentHistoryLabel = "Shipment_History___Total"
	EDIB2BiLabel         = "EDIB2BiReportV2"
	EDI940Label          = "EDI940Report_withCostV2.0"
)

// Join key columns fixed by contract with the three source systems.
const (
	pickticketColumn  = "Pickticket"
	axReferenceColumn = "AXReferenceID"
	pickRouteColumn   = "PickRoute"
)

// Filter literals. Matching is exact and case-sensitive; the reports emit
// these values verbatim.
const (
	docStatusColumn  = "SalesHeaderDocStatus"
	ediStatusColumn  = "EDI Processing Status"
	docStatusPicking = "Picking List"
	ediStatusFailure = "AX Load Failure"
)

// firstProjection is the allow-list applied after the B2Bi join.
var firstProjection = []string{
	"Warehouse", "Pickticket", "Order", "Drop Date", "Ship Date", "Ship To",
	"Ship State", "Zip Code", "Customer PO", "Ship Via", "Load ID",
	"Weight", "SKU", "Units", "Price", "Size Type", "Size", "Product Type",
	"InvoiceNumber", "StatusSummary", "ERRORDESCRIPTION",
}

// finalProjection is the allow-list applied after the 940 join. Pickticket
// leads so it is the first column of the result.
var finalProjection = []string{
	"Pickticket", "Warehouse", "Order", "Drop Date", "Ship Date", "Ship To",
	"Ship State", "Zip Code", "Customer PO", "Ship Via", "Load ID",
	"Weight", "SKU", "Units", "Price", "Size Type", "Size", "Product Type",
	"InvoiceNumber", "StatusSummary", "ERRORDESCRIPTION",
	"PickRoute", "SalesHeaderStatus", "SalesHeaderDocStatus",
	"PickModeOfDelivery", "PickCreatedDate", "DeliveryDate",
}

// columnRenames maps raw report columns to the headings the reconciliation
// spreadsheet uses. The "Found in AX DATa?" casing is the heading the
// downstream consumers expect.
var columnRenames = map[string]string{
	"InvoiceNumber":    "Received in EDI?",
	"StatusSummary":    ediStatusColumn,
	"ERRORDESCRIPTION": "EDI Message",
	"PickRoute":        "Found in AX DATa?",
}

// MissingColumnError reports a mandatory join-key column absent from one of
// the three input reports after header trimming. It names the offending
// report and lists the columns actually present for diagnostics.
type MissingColumnError struct {
	Table     string
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column '%s' in %s. Available: [%s]",
		e.Column, e.Table, strings.Join(e.Available, ", "))
}

// Pipeline runs the reconciliation transform. It is stateless apart from
// the injected clock; a single Pipeline value is safe for concurrent use.
type Pipeline struct {
	clock  func() time.Time
	logger *slog.Logger
}

// NewPipeline creates a pipeline that stamps output filenames with the
// wall clock.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		clock:  time.Now,
		logger: logger.With(slog.String("component", "recon_pipeline")),
	}
}

// WithClock replaces the clock used for filename derivation and returns
// the pipeline for chaining. Tests use it to pin the date.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Reconcile joins the three reports, applies the fixed projection, rename,
// filter and dedupe stages, and returns the result table along with the
// derived spreadsheet filename. Inputs are never modified.
//
// The only failure mode is a *MissingColumnError for an absent join key;
// missing optional columns are skipped, and when either filter column is
// missing the status filter is bypassed entirely so the full joined set
// flows through.
func (p *Pipeline) Reconcile(shipmentHistory, edib2bi, edi940 *table.Table) (*table.Table, string, error) {
	shipmentHistory = shipmentHistory.TrimHeaders()
	edib2bi = edib2bi.TrimHeaders()
	edi940 = edi940.TrimHeaders()

	for _, req := range []struct {
		label  string
		tbl    *table.Table
		column string
	}{
		{ShipmentHistoryLabel, shipmentHistory, pickticketColumn},
		{EDIB2BiLabel, edib2bi, axReferenceColumn},
		{EDI940Label, edi940, pickRouteColumn},
	} {
		if !req.tbl.HasColumn(req.column) {
			return nil, "", &MissingColumnError{
				Table:     req.label,
				Column:    req.column,
				Available: req.tbl.Columns(),
			}
		}
	}

	merged, err := shipmentHistory.LeftJoin(edib2bi, pickticketColumn, axReferenceColumn)
	if err != nil {
		return nil, "", fmt.Errorf("b2bi join: %w", err)
	}
	// Joins can reintroduce untrimmed names when colliding columns are
	// re-labelled, so trim again before projecting.
	merged = merged.TrimHeaders().Select(firstProjection...)

	final, err := merged.LeftJoin(edi940, pickticketColumn, pickRouteColumn)
	if err != nil {
		return nil, "", fmt.Errorf("940 join: %w", err)
	}
	final = final.TrimHeaders().Select(finalProjection...).Rename(columnRenames)

	joinedRows := final.NumRows()
	if final.HasColumn(docStatusColumn) && final.HasColumn(ediStatusColumn) {
		final = final.Filter(func(r table.Row) bool {
			return r.Get(docStatusColumn) == docStatusPicking &&
				r.Get(ediStatusColumn) == ediStatusFailure
		})
	} else {
		// Documented pass-through: without both status columns the filter
		// is skipped rather than treated as an error.
		p.logger.Warn("status columns missing, filter skipped",
			slog.Bool("has_doc_status", final.HasColumn(docStatusColumn)),
			slog.Bool("has_edi_status", final.HasColumn(ediStatusColumn)))
	}

	if final.HasColumn(pickticketColumn) {
		final = final.DedupeBy(pickticketColumn)
	}

	filename := fmt.Sprintf("MISSING_945_%s.xlsx", p.clock().Format("010206"))

	p.logger.Info("reconciliation complete",
		slog.Int("shipment_history_rows", shipmentHistory.NumRows()),
		slog.Int("edib2bi_rows", edib2bi.NumRows()),
		slog.Int("edi940_rows", edi940.NumRows()),
		slog.Int("joined_rows", joinedRows),
		slog.Int("result_rows", final.NumRows()),
		slog.String("filename", filename))

	return final, filename, nil
}
