package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/http"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockReports struct {
	report domain.Report
	ok     bool
}

func (m *mockReports) LastReport() (domain.Report, bool) { return m.report, m.ok }

func newTestServer(readyErr error, reports *mockReports) *httpadapter.Server {
	if reports == nil {
		reports = &mockReports{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, reports, slog.Default())
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("no report yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReportReturns404BeforeFirstRun(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"no report yet"}`, rec.Body.String())
}

func TestReportReturnsLatest(t *testing.T) {
	report := domain.Report{
		RunID:  "run-abc",
		Trials: 100,
		Fields: []domain.FieldReport{{Field: domain.FieldAvgTemp, Defined: true, Score: 0.25}},
	}
	rec := serve(newTestServer(nil, &mockReports{report: report, ok: true}), "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-abc", got.RunID)
	require.Len(t, got.Fields, 1)
	assert.InDelta(t, 0.25, got.Fields[0].Score, 1e-12)
}
