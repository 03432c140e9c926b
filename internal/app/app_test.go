package app

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testApp     *Application
	testAppOnce sync.Once
	testAppErr  error
)

// The OTel prometheus exporter registers collectors globally, so the
// test application is built once and shared.
func getTestApp(t *testing.T) *Application {
	t.Helper()
	t.Setenv("RECON_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("RECON_LOGGING_OUTPUT", "stdout")

	testAppOnce.Do(func() {
		testApp, testAppErr = NewApplication()
	})
	require.NoError(t, testAppErr)
	return testApp
}

func postReports(t *testing.T, app *Application, parts map[string][]byte) *httptest.ResponseRecorder {
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

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestApplicationHealthEndpoint(t *testing.T) {
	app := getTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplicationReconcileEndToEnd(t *testing.T) {
	app := getTestApp(t)

	rec := postReports(t, app, map[string][]byte{
		"shipment_history": []byte("Pickticket,Warehouse,Order\nP1,W1,O1\n"),
		"edib2bi":          []byte("AXReferenceID,InvoiceNumber,StatusSummary,ERRORDESCRIPTION\nP1,INV1,AX Load Failure,bad segment\n"),
		"edi940":           []byte("PickRoute,SalesHeaderStatus,SalesHeaderDocStatus\nP1,Open,Picking List\n"),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="MISSING_945_`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.xlsx"`), disposition)
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestApplicationReconcileMissingPart(t *testing.T) {
	app := getTestApp(t)

	rec := postReports(t, app, map[string][]byte{
		"shipment_history": []byte("Pickticket\nP1\n"),
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestApplicationUnknownRouteIsProblemJSON(t *testing.T) {
	app := getTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestApplicationMetricsEndpoint(t *testing.T) {
	app := getTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
