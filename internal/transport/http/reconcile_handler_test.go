package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "recon945/internal/errors"
	"recon945/internal/recon"
	"recon945/internal/services"
)

var (
	shipmentHistoryCSV = []byte("Pickticket,Warehouse,Order\nP1,W1,O1\nP2,W1,O2\n")
	edib2biCSV         = []byte("AXReferenceID,InvoiceNumber,StatusSummary,ERRORDESCRIPTION\nP1,INV1,AX Load Failure,segment rejected\nP2,INV2,Sent,\n")
	edi940CSV          = []byte("PickRoute,SalesHeaderStatus,SalesHeaderDocStatus\nP1,Open,Picking List\nP2,Open,Picking List\n")
)

func newTestHandler(t *testing.T, maxBytes int64) *ReconcileHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := recon.NewPipeline(logger).WithClock(func() time.Time {
		return time.Date(2024, time.March, 7, 9, 30, 0, 0, time.UTC)
	})
	svc := services.NewReconcileService(pipeline, logger, nil)
	return NewReconcileHandler(svc, maxBytes, logger, apierrors.NewErrorHandler(logger, false))
}

func multipartBody(t *testing.T, parts map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, data := range parts {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestReconcileHandlerSuccess(t *testing.T) {
	handler := newTestHandler(t, 1<<20)

	body, contentType := multipartBody(t, map[string][]byte{
		fieldShipmentHistory: shipmentHistoryCSV,
		fieldEDIB2Bi:         edib2biCSV,
		fieldEDI940:          edi940CSV,
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="MISSING_945_030724.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pickticket", rows[0][0])
	assert.Equal(t, "P1", rows[1][0])
}

func TestReconcileHandlerMissingPart(t *testing.T) {
	handler := newTestHandler(t, 1<<20)

	body, contentType := multipartBody(t, map[string][]byte{
		fieldShipmentHistory: shipmentHistoryCSV,
		fieldEDI940:          edi940CSV,
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	details, ok := problem["details"].(map[string]interface{})
	require.True(t, ok, "problem should carry validation details")
	assert.Equal(t, fieldEDIB2Bi, details["field"])
}

func TestReconcileHandlerMissingColumn(t *testing.T) {
	handler := newTestHandler(t, 1<<20)

	body, contentType := multipartBody(t, map[string][]byte{
		fieldShipmentHistory: []byte("Ticket,Warehouse\nP1,W1\n"),
		fieldEDIB2Bi:         edib2biCSV,
		fieldEDI940:          edi940CSV,
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["detail"].(string), "Pickticket")
	assert.Contains(t, problem["detail"].(string), recon.ShipmentHistoryLabel)
}

func TestReconcileHandlerUndecodablePayload(t *testing.T) {
	handler := newTestHandler(t, 1<<20)

	body, contentType := multipartBody(t, map[string][]byte{
		fieldShipmentHistory: {},
		fieldEDIB2Bi:         edib2biCSV,
		fieldEDI940:          edi940CSV,
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestReconcileHandlerUploadTooLarge(t *testing.T) {
	handler := newTestHandler(t, 256)

	big := bytes.Repeat([]byte("a,b,c\n"), 200)
	body, contentType := multipartBody(t, map[string][]byte{
		fieldShipmentHistory: big,
		fieldEDIB2Bi:         big,
		fieldEDI940:          big,
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestReconcileHandlerNotMultipart(t *testing.T) {
	handler := newTestHandler(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("not a form"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
