// Package recon implements the Missing-945 reconciliation pipeline: it
// joins the shipment history report with the EDI B2Bi and EDI 940 reports
// on the pickticket key, projects and renames the contracted column set,
// keeps the shipments that failed AX loading, and derives the output
// spreadsheet name. The pipeline performs no I/O; decoding and
// serialization live in the decode and exporter packages.
package recon
