package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errGone    = errors.New("widget not found")
	errBlocked = errors.New("widget blocked")
)

var testStatuses = StatusMap{
	http.StatusNotFound:            {errGone},
	http.StatusUnprocessableEntity: {errBlocked},
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var pd ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pd))
	return pd
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, "widgets", errGone, testStatuses)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	pd := decodeProblem(t, rec)
	assert.Equal(t, "Not Found", pd.Title)
	assert.Equal(t, "widget not found", pd.Detail)
}

func TestRespondErrorMatchesWrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, "widgets", fmt.Errorf("%w: w-42", errBlocked), testStatuses)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Precondition Failed", decodeProblem(t, rec).Title)
}

func TestRespondErrorHidesAndLogsUnmapped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rec := httptest.NewRecorder()
	RespondError(rec, logger, "widgets", errors.New("pool exhausted"), testStatuses)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, decodeProblem(t, rec).Detail, "internal detail must not leak")
	assert.Contains(t, buf.String(), "widgets request failed")
	assert.Contains(t, buf.String(), "pool exhausted")
}
