package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon945/internal/decode"
	"recon945/internal/recon"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.Default(), false)
}

func TestErrorToProblemMissingColumn(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)

	err := &recon.MissingColumnError{
		Table:     "Shipment_History___Total",
		Column:    "Pickticket",
		Available: []string{"Warehouse"},
	}

	problem := h.ErrorToProblem(err, r)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, TypeMissingColumn, problem.Type)
	assert.Equal(t, "Shipment_History___Total", problem.Extensions["table"])
	assert.Equal(t, "Pickticket", problem.Extensions["column"])
}

func TestErrorToProblemDecodeFailed(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)

	err := &decode.DecodeError{Name: "edib2bi", Err: errors.New("no columns to parse from file")}

	problem := h.ErrorToProblem(err, r)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, TypeDecodeFailed, problem.Type)
	assert.Contains(t, problem.Detail, "no columns to parse")
	assert.Equal(t, "edib2bi", problem.Extensions["report"])
}

func TestErrorToProblemUnknownErrorIs500(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	problem := h.ErrorToProblem(errors.New("boom"), r)
	assert.Equal(t, http.StatusInternalServerError, problem.Status)
	assert.Equal(t, TypeInternal, problem.Type)
}

func TestHandleErrorWritesProblemJSON(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, ErrValidation("shipment_history", "report file is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.EqualValues(t, http.StatusBadRequest, body["status"])
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(400, TypeMissingColumn, "Missing Required Column", "detail", "/api/reconcile").
		WithExtension("column", "Pickticket")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Pickticket", m["column"])
	assert.Equal(t, "Missing Required Column", m["title"])
}
