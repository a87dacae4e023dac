package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	budgetrepository "github.com/smallbiznis/amber/internal/budget/repository"
	budgetservice "github.com/smallbiznis/amber/internal/budget/service"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/config"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	ingestrepository "github.com/smallbiznis/amber/internal/ingest/repository"
	ingestservice "github.com/smallbiznis/amber/internal/ingest/service"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	ledgerrepository "github.com/smallbiznis/amber/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/amber/internal/ledger/service"
	"github.com/smallbiznis/amber/internal/normalize"
	"github.com/smallbiznis/amber/internal/observability"
	"github.com/smallbiznis/amber/internal/reconcile"
	reportservice "github.com/smallbiznis/amber/internal/report/service"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bookingCSV = "Guest Name,Check-In,Booking Date,Rooms,Nights,Room Revenue\n" +
	"Kim,2025-05-10,2025-05-01,1,2,100000\n" +
	"Lee,2025-05-11,2025-05-02,2,1,0\n" +
	",2025-05-12,2025-05-01,1,1,50000\n"

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerdomain.Entry{}, &budgetdomain.BudgetTarget{}, &ingestdomain.Batch{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC))
	reportCache := cache.NewMemoryReportCache(time.Minute)
	cfg := config.Config{PropertyTimezone: "UTC", UploadMaxBytes: 1 << 20}

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		Store: ledgerrepository.New(conn, node),
		Log:   log,
		Clock: fake,
	})
	budgetSvc := budgetservice.NewService(budgetservice.Params{
		Store: budgetrepository.New(conn),
		Log:   log,
		Cache: reportCache,
	})
	ingestSvc := ingestservice.NewService(ingestservice.Params{
		Ledger:  ledgerSvc,
		Batches: ingestrepository.New(conn),
		Rules:   config.NewStaticRules(normalize.DefaultRuleset()),
		Clock:   fake,
		Lock:    ingestservice.NewLocalUploadLock(),
		Config:  cfg,
		Log:     log,
		Cache:   reportCache,
	})
	reportSvc := reportservice.NewService(reportservice.Params{
		Ledger: ledgerSvc,
		Budget: budgetSvc,
		Log:    log,
		Clock:  fake,
		Cache:  reportCache,
	})

	srv := NewServer(ServerParams{
		Gin:       NewEngine(observability.Config{Environment: "test"}),
		Cfg:       cfg,
		Clock:     fake,
		IngestSvc: ingestSvc,
		ReportSvc: reportSvc,
		BudgetSvc: budgetSvc,
	})
	return srv, conn
}

func uploadRequest(t *testing.T, filename, body string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestUploadThenReport(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, uploadRequest(t, "new_booking.csv", bookingCSV, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	report := decodeData[ingestdomain.Report](t, rec)
	assert.Equal(t, 2, report.Appended)
	assert.Equal(t, "2025-05-12", report.SnapshotDate)
	assert.Equal(t, 1, report.Dropped["missing_guest_name"])

	rec = serve(srv, httptest.NewRequest(http.MethodPut, "/api/budgets",
		strings.NewReader(`{"targets":[{"month":"2025-05","target":"200000"}]}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[reconcile.Result](t, rec)
	assert.False(t, result.NoData)
	assert.Equal(t, 2, result.Totals.NetRoomNights)
	assert.True(t, result.Totals.NetRevenue.Equal(decimal.NewFromInt(100000)))
	require.Len(t, result.Achievement, 1)
	assert.Equal(t, "2025-05", result.Achievement[0].Month)
	assert.Equal(t, 50.0, result.Achievement[0].Percent)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2025-05-12"}, decodeData[[]string](t, rec))

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/uploads?page_size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	batches := decodeData[ingestdomain.ListBatchesResponse](t, rec)
	require.Len(t, batches.Batches, 1)
	assert.Equal(t, report.BatchID, batches.Batches[0].ID)
}

func TestReportBeforeAnyUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/reports?as_of=2025-05-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[reconcile.Result](t, rec)
	assert.True(t, result.NoData)
	assert.NotNil(t, result.Monthly)
}

func TestUploadMissingColumnListsOfferedLabels(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, uploadRequest(t, "list.csv", "Name,Amount\nKim,100\n", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Equal(t, []string{"Name", "Amount"}, payload.OfferedLabels)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "missing_required_field", payload.Errors[0].Code)
}

func TestRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
		code string
	}{
		{
			name: "bad status hint",
			req:  uploadRequest(t, "new_booking.csv", bookingCSV, map[string]string{"status": "maybe"}),
			code: "invalid_status",
		},
		{
			name: "unsupported extension",
			req:  uploadRequest(t, "new_booking.pdf", "%PDF", nil),
			code: "unsupported_file",
		},
		{
			name: "no usable rows",
			req:  uploadRequest(t, "list.csv", "Guest Name,Check-In\n,2025-05-10\n", nil),
			code: "no_usable_rows",
		},
		{
			name: "bad as_of",
			req:  httptest.NewRequest(http.MethodGet, "/api/reports?as_of=May", nil),
			code: "invalid_as_of",
		},
		{
			name: "inverted pickup range",
			req:  httptest.NewRequest(http.MethodGet, "/api/reports/pickup?from=2025-05-12&to=2025-05-01", nil),
			code: "invalid_range",
		},
		{
			name: "bad budget month",
			req:  httptest.NewRequest(http.MethodPut, "/api/budgets", strings.NewReader(`{"targets":[{"month":"someday","target":"1"}]}`)),
			code: "invalid_month",
		},
		{
			name: "bad page token",
			req:  httptest.NewRequest(http.MethodGet, "/api/uploads?page_token=%21%21", nil),
			code: "invalid_page_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt.req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			payload := decodeError(t, rec)
			require.NotEmpty(t, payload.Errors)
			assert.Equal(t, tt.code, payload.Errors[0].Code)
		})
	}
}

func TestPickupDefaultsToYesterday(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, uploadRequest(t, "new_booking.csv", bookingCSV, nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/api/reports/pickup", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pickup := decodeData[reconcile.Pickup](t, rec)
	assert.Equal(t, "2025-05-11", pickup.From)
	assert.Equal(t, "2025-05-12", pickup.To)
	require.Len(t, pickup.Rows, 1)
	assert.Equal(t, 2, pickup.Rows[0].RoomNights)
}

func TestStoreUnavailable(t *testing.T) {
	srv, conn := newTestServer(t)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service_unavailable", decodeError(t, rec).Type)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
