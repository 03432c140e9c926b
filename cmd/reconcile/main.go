// Command reconcile runs the missing-945 reconciliation against report
// files on disk, for operators who have the exports locally instead of
// going through the HTTP service.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"recon945/internal/config"
	"recon945/internal/decode"
	"recon945/internal/exporter"
	"recon945/internal/infrastructure"
	"recon945/internal/recon"
	"recon945/internal/table"
	"recon945/internal/validation"
)

func main() {
	shipmentHistoryPath := flag.String("shipment-history", "", "path to the Shipment History report")
	edib2biPath := flag.String("edib2bi", "", "path to the EDI B2Bi report")
	edi940Path := flag.String("edi940", "", "path to the EDI 940 report")
	outDir := flag.String("out", ".", "output directory for the result file")
	format := flag.String("format", "xlsx", "output format: xlsx or csv")
	flag.Parse()

	if *shipmentHistoryPath == "" || *edib2biPath == "" || *edi940Path == "" {
		slog.Error("all three report paths are required: -shipment-history, -edib2bi, -edi940")
		flag.Usage()
		os.Exit(2)
	}
	if *format != "xlsx" && *format != "csv" {
		slog.Error("unsupported format", slog.String("format", *format))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.Output = "stdout"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	validator := validation.NewFileValidator(logger)
	for _, path := range []string{*shipmentHistoryPath, *edib2biPath, *edi940Path} {
		if err := validator.ValidateReportFile(path); err != nil {
			logger.Error("Input validation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if err := validator.ValidateOutputDirectory(*outDir); err != nil {
		logger.Error("Output validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shipmentHistory := loadReport(logger, recon.ShipmentHistoryLabel, *shipmentHistoryPath)
	edib2bi := loadReport(logger, recon.EDIB2BiLabel, *edib2biPath)
	edi940 := loadReport(logger, recon.EDI940Label, *edi940Path)

	pipeline := recon.NewPipeline(logger)
	result, filename, err := pipeline.Reconcile(shipmentHistory, edib2bi, edi940)
	if err != nil {
		logger.Error("Reconciliation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	outPath := filepath.Join(*outDir, filename)
	switch *format {
	case "csv":
		outPath = strings.TrimSuffix(outPath, ".xlsx") + ".csv"
		writer := exporter.NewCSVWriter(logger)
		if err := writer.WriteTable(outPath, result); err != nil {
			logger.Error("Failed to write CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		data, err := exporter.WriteXLSX(result)
		if err != nil {
			logger.Error("Failed to render workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			logger.Error("Failed to write workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("Reconciliation complete",
		slog.String("output", outPath),
		slog.Int("rows", result.NumRows()))
}

func loadReport(logger *slog.Logger, label, path string) *table.Table {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read report",
			slog.String("report", label),
			slog.String("path", path),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	t, err := decode.Decode(label, data)
	if err != nil {
		logger.Error("Failed to decode report",
			slog.String("report", label),
			slog.String("path", path),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Report loaded",
		slog.String("report", label),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumColumns()))
	return t
}
