package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "recon945/internal/errors"
	"recon945/internal/exporter"
)

// Multipart field names the upload form must carry, one per source report.
const (
	fieldShipmentHistory = "shipment_history"
	fieldEDIB2Bi         = "edib2bi"
	fieldEDI940          = "edi940"
)

// memoryLimit is the in-memory threshold for multipart parsing; larger
// parts spill to temp files.
const memoryLimit = 32 << 20

// ReconcileHandler handles the missing-945 reconciliation upload with
// RFC 7807 compliance
type ReconcileHandler struct {
	service      ReconcileServiceInterface
	maxBytes     int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(service ReconcileServiceInterface, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReconcileHandler {
	return &ReconcileHandler{
		service:      service,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "reconcile_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the reconcile routes
func (h *ReconcileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Reconcile)
	return r
}

// Reconcile handles POST /api/reconcile. It expects a multipart form
// with the three report files and responds with the xlsx workbook as
// an attachment.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				fmt.Sprintf("Upload exceeds the %d byte limit", h.maxBytes)))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", "Request body is not a valid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	shipmentHistory, err := h.readPart(r, fieldShipmentHistory)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	edib2bi, err := h.readPart(r, fieldEDIB2Bi)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	edi940, err := h.readPart(r, fieldEDI940)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "reconcile upload received",
		slog.Int("shipment_history_bytes", len(shipmentHistory)),
		slog.Int("edib2bi_bytes", len(edib2bi)),
		slog.Int("edi940_bytes", len(edi940)))

	result, err := h.service.Reconcile(ctx, shipmentHistory, edib2bi, edi940)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write workbook response",
			slog.String("error", err.Error()))
	}
}

// readPart pulls one named file out of the parsed multipart form.
func (h *ReconcileHandler) readPart(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apierrors.ErrValidation(field, fmt.Sprintf("Missing required file field %q", field))
		}
		return nil, apierrors.ErrValidation(field, fmt.Sprintf("Unable to read file field %q", field))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apierrors.ErrValidation(field, fmt.Sprintf("Unable to read file field %q", field))
	}
	return data, nil
}
