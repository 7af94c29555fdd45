package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/fox-valley-engine/internal/database"
	"github.com/trogers1052/fox-valley-engine/internal/engine"
	"github.com/trogers1052/fox-valley-engine/internal/journal"
	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
	"github.com/trogers1052/fox-valley-engine/internal/service"
)

var today = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func sampleResult() *pipeline.Result {
	entry := func(ticker string, rank int) models.ScreenEntry {
		return models.ScreenEntry{Ticker: ticker, ScreenGroup: models.ScreenGrowth1, SnapshotDate: today, Rank: models.IntPtr(rank)}
	}
	prev := today.AddDate(0, 0, -1)
	return pipeline.New(engine.DefaultRules()).Evaluate(pipeline.Facts{
		SnapshotDate: &today,
		Positions: []models.Position{
			{Ticker: "KO", MarketValue: nd("80000"), GainLossPct: nd("10")},
			{Ticker: "SPAXX", MarketValue: nd("20000")},
		},
		Screens: map[models.ScreenGroup][]models.ScreenEntry{
			models.ScreenGrowth1: {entry("AAA", 1), entry("KO", 3)},
		},
		PreviousScreens: map[models.ScreenGroup][]models.ScreenEntry{
			models.ScreenGrowth1: {
				{Ticker: "AAA", ScreenGroup: models.ScreenGrowth1, SnapshotDate: prev, Rank: models.IntPtr(2)},
				{Ticker: "KO", ScreenGroup: models.ScreenGrowth1, SnapshotDate: prev, Rank: models.IntPtr(3)},
			},
		},
	})
}

type mockService struct {
	result     *pipeline.Result
	reportErr  error
	recorded   bool
	journal    []models.JournalEntry
	journalLim int
	latest     *models.BriefRecord
	importErr  error
	group      models.ScreenGroup
	date       time.Time
	body       string
	orders     []models.Order
}

func (m *mockService) Report(context.Context) (*pipeline.Result, error) {
	return m.result, m.reportErr
}

func (m *mockService) Generate(_ context.Context, record bool) (*pipeline.Result, error) {
	m.recorded = record
	return m.result, m.reportErr
}

func (m *mockService) ImportPortfolio(_ context.Context, _ string, r io.Reader) (*normalize.PositionResult, error) {
	data, _ := io.ReadAll(r)
	m.body = string(data)
	if m.importErr != nil {
		return nil, m.importErr
	}
	return &normalize.PositionResult{Positions: []models.Position{{Ticker: "KO"}}}, nil
}

func (m *mockService) ImportScreen(_ context.Context, group models.ScreenGroup, date time.Time, _ string, r io.Reader) (*normalize.ScreenResult, error) {
	data, _ := io.ReadAll(r)
	m.group, m.date, m.body = group, date, string(data)
	if m.importErr != nil {
		return nil, m.importErr
	}
	return &normalize.ScreenResult{Entries: []models.ScreenEntry{{Ticker: "AAA"}}}, nil
}

func (m *mockService) CaptureOrders(_ context.Context, in journal.OrderInput) ([]models.Order, error) {
	m.orders = journal.CaptureOrders(nil, in, today)
	return m.orders, nil
}

func (m *mockService) Journal(limit int) ([]models.JournalEntry, error) {
	m.journalLim = limit
	return m.journal, nil
}

func (m *mockService) LatestBrief() (*models.BriefRecord, error) {
	if m.latest == nil {
		return nil, database.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockService) ROIHistory() ([]models.ROIPoint, error) {
	return []models.ROIPoint{{Date: today, ROI: nd("10")}}, nil
}

func serve(t *testing.T, svc ReportService, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	router := SetupRoutes(NewHandler(svc, zerolog.Nop()))
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := serve(t, &mockService{}, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestGetReport(t *testing.T) {
	rec := serve(t, &mockService{result: sampleResult()}, "GET", "/api/v1/report", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-02", body["label"])
	assert.Contains(t, body, "decisions")
	assert.Contains(t, body, "brief")
}

func TestGetReport_NoSnapshots(t *testing.T) {
	rec := serve(t, &mockService{reportErr: service.ErrNoSnapshots}, "GET", "/api/v1/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport_ServerError(t *testing.T) {
	rec := serve(t, &mockService{reportErr: errors.New("db down")}, "GET", "/api/v1/report", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetDecisions(t *testing.T) {
	svc := &mockService{result: sampleResult()}

	t.Run("all rows", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/decisions", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []models.DecisionRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		assert.Len(t, rows, 2)
	})

	t.Run("filtered by action", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/decisions?action=BUY", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []models.DecisionRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "AAA", rows[0].Ticker)
	})
}

func TestGetDeltas(t *testing.T) {
	svc := &mockService{result: sampleResult()}

	rec := serve(t, svc, "GET", "/api/v1/deltas", nil)
	var all []models.DeltaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = serve(t, svc, "GET", "/api/v1/deltas?changes=true", nil)
	var changes []models.DeltaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeUpgraded, changes[0].ChangeKind)
}

func TestGetBrief_Formats(t *testing.T) {
	svc := &mockService{result: sampleResult()}

	t.Run("json by default", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/brief", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var b models.Brief
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
		assert.Equal(t, 1, b.Rank1Count)
	})

	t.Run("markdown", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/brief?format=markdown", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "# Fox Valley Tactical Brief"))
	})

	t.Run("html", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/brief?format=html", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>Fox Valley Tactical Brief")
		assert.Contains(t, rec.Body.String(), "<table>")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := serve(t, svc, "GET", "/api/v1/brief?format=pdf", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetLatestBrief(t *testing.T) {
	rec := serve(t, &mockService{}, "GET", "/api/v1/brief/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc := &mockService{latest: &models.BriefRecord{Brief: &models.Brief{ID: "b1", Label: "2026-03-02"}, Markdown: "# stored"}}
	rec = serve(t, svc, "GET", "/api/v1/brief/latest?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# stored", rec.Body.String())
}

func TestRecordBrief(t *testing.T) {
	svc := &mockService{result: sampleResult()}

	rec := serve(t, svc, "POST", "/api/v1/brief", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.recorded)
}

func TestGetJournal(t *testing.T) {
	svc := &mockService{journal: []models.JournalEntry{{ID: 1, Action: "BUY", Ticker: "AAA"}}}

	rec := serve(t, svc, "GET", "/api/v1/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultJournalLimit, svc.journalLim)

	serve(t, svc, "GET", "/api/v1/journal?limit=5000", nil)
	assert.Equal(t, maxJournalLimit, svc.journalLim)

	rec = serve(t, svc, "GET", "/api/v1/journal?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetROIHistory(t *testing.T) {
	rec := serve(t, &mockService{}, "GET", "/api/v1/roi", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var points []models.ROIPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, today, points[0].Date)
}

func TestPutPortfolio(t *testing.T) {
	svc := &mockService{}
	csv := "Symbol,Quantity,Last Price\nKO,10,60\n"

	rec := serve(t, svc, "PUT", "/api/v1/portfolio", strings.NewReader(csv))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, svc.body)

	t.Run("schema errors are unprocessable", func(t *testing.T) {
		svc := &mockService{importErr: &normalize.SchemaError{Table: "portfolio.csv", Field: "shares"}}
		rec := serve(t, svc, "PUT", "/api/v1/portfolio", strings.NewReader("Symbol\nKO\n"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("empty uploads are unprocessable", func(t *testing.T) {
		svc := &mockService{importErr: &normalize.EmptyInputWarning{Table: "portfolio.csv"}}
		rec := serve(t, svc, "PUT", "/api/v1/portfolio", strings.NewReader(""))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestPutScreen(t *testing.T) {
	svc := &mockService{}

	rec := serve(t, svc, "PUT", "/api/v1/screens/growth1/2026-03-02", strings.NewReader("Ticker,Rank\nAAA,1\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ScreenGrowth1, svc.group)
	assert.Equal(t, today, svc.date)

	rec = serve(t, svc, "PUT", "/api/v1/screens/value/2026-03-02", strings.NewReader(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, svc, "PUT", "/api/v1/screens/growth2/03-02-2026", strings.NewReader(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostOrders(t *testing.T) {
	svc := &mockService{}

	body, _ := json.Marshal(journal.OrderInput{BuyTicker: "aapl", BuyShares: 5, SellTicker: "KO", SellShares: 3})
	rec := serve(t, svc, "POST", "/api/v1/orders", bytes.NewReader(body))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.orders, 2)
	assert.Equal(t, "AAPL", svc.orders[0].Ticker)

	body, _ = json.Marshal(journal.OrderInput{BuyTicker: "AAPL"})
	rec = serve(t, svc, "POST", "/api/v1/orders", bytes.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, svc, "POST", "/api/v1/orders", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
