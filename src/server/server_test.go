package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"stock-dashboard/src/jobs"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/storage"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScheduler struct {
	mu        sync.Mutex
	submitted []models.MStockRecord
	err       error
}

func (s *stubScheduler) Submit(record models.MStockRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.submitted = append(s.submitted, record)
	return "job-" + record.Symbol, nil
}

func (s *stubScheduler) Stats() models.MJobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.MJobStats{Workers: 1, QueueSize: 1, Submitted: int64(len(s.submitted))}
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T) (*DashboardServer, *storage.SQLiteStore, *stubScheduler) {
	t.Helper()

	cfg := &models.MConfig{Name: "test", Host: "127.0.0.1", Port: 8000, LogLevel: "INFO"}
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "server.db")

	store := storage.NewSQLiteStore(cfg, logger.NewLogger("test"))
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { store.Close() })

	sched := &stubScheduler{}
	srv := NewDashboardServer(cfg, store, sched, logger.NewLogger("test"))
	t.Cleanup(func() { srv.Stop(context.Background()) })
	return srv, store, sched
}

func do(t *testing.T, srv *DashboardServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func seedFetched(t *testing.T, store *storage.SQLiteStore, symbol string, price, pe, ma50, ma200 string) {
	t.Helper()
	ctx := context.Background()
	rec, err := store.Create(ctx, symbol)
	require.NoError(t, err)
	require.NoError(t, store.ApplyQuote(ctx, rec.ID, models.MStockMetrics{
		Price:      decimal.RequireFromString(price),
		ForwardPE:  decimal.RequireFromString(pe),
		ForwardEPS: decimal.RequireFromString("1"),
		MA50:       decimal.RequireFromString(ma50),
		MA200:      decimal.RequireFromString(ma200),
	}, time.Now()))
}

// -----------------------------------------------------------------------------

func TestCreateStock(t *testing.T) {
	srv, store, sched := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/stock", `{"symbol":" aapl "}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, "job-AAPL", body["job_id"])
	assert.Equal(t, models.FetchStatusPending, body["fetch_status"])

	rec, err := store.GetBySymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, float64(rec.ID), body["id"])

	require.Len(t, sched.submitted, 1)
	assert.Equal(t, rec.ID, sched.submitted[0].ID)
}

func TestCreateStockRejections(t *testing.T) {
	srv, _, _ := newTestServer(t)

	require.Equal(t, http.StatusAccepted, do(t, srv, http.MethodPost, "/stock", `{"symbol":"MSFT"}`).Code)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"duplicate", `{"symbol":"msft"}`, http.StatusConflict},
		{"empty symbol", `{"symbol":"  "}`, http.StatusBadRequest},
		{"missing symbol", `{}`, http.StatusBadRequest},
		{"bad json", `{"symbol":`, http.StatusBadRequest},
		{"bad characters", `{"symbol":"DROP TABLE"}`, http.StatusBadRequest},
		{"reserved", `{"symbol":"DELETEALL"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/stock", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, "error", decode(t, w)["status"])
		})
	}
}

func TestCreateStockQueueFull(t *testing.T) {
	srv, store, sched := newTestServer(t)
	sched.err = jobs.ErrQueueFull

	w := do(t, srv, http.MethodPost, "/stock", `{"symbol":"TSLA"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, models.FetchStatusFailed, body["fetch_status"])
	assert.Equal(t, "fetch queue full", body["fetch_error"])

	rec, err := store.GetBySymbol(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, models.FetchStatusFailed, rec.FetchStatus)
	assert.Equal(t, "fetch queue full", rec.FetchError)
}

func TestDeleteStock(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "AAPL")
	require.NoError(t, err)

	w := do(t, srv, http.MethodDelete, "/stock", `{"symbol":"aapl"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, srv, http.MethodDelete, "/stock", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodDelete, "/stock", `{"symbol":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAll(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	w := do(t, srv, http.MethodDelete, "/stock", `{"symbol":"DELETEALL"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["deleted"])

	for _, s := range []string{"AAPL", "MSFT"} {
		_, err := store.Create(ctx, s)
		require.NoError(t, err)
	}

	w = do(t, srv, http.MethodDelete, "/stock", `{"symbol":"DELETEALL"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["deleted"])

	all, err := store.List(ctx, models.MRecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListStocksFilters(t *testing.T) {
	srv, store, _ := newTestServer(t)
	seedFetched(t, store, "AAPL", "150", "18", "140", "160")
	seedFetched(t, store, "MSFT", "300", "25", "280", "250")
	_, err := store.Create(context.Background(), "PEND")
	require.NoError(t, err)

	listed := func(path string) []string {
		w := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Stocks []models.MStockListing `json:"stocks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		out := []string{}
		for _, s := range body.Stocks {
			out = append(out, s.Symbol)
			assert.NotEmpty(t, s.Exchange)
		}
		return out
	}

	assert.Equal(t, []string{"AAPL", "MSFT", "PEND"}, listed("/api/stocks"))
	assert.Equal(t, []string{"AAPL"}, listed("/api/stocks?forward_pe=20"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, listed("/api/stocks?ma50=1"))
	assert.Equal(t, []string{"MSFT"}, listed("/api/stocks?ma200=0"))
	assert.Equal(t, []string{"AAPL", "MSFT", "PEND"}, listed("/api/stocks?forward_pe="))

	w := do(t, srv, http.MethodGet, "/api/stocks?forward_pe=cheap", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardPage(t *testing.T) {
	srv, store, _ := newTestServer(t)
	seedFetched(t, store, "AAPL", "150", "18", "140", "160")
	seedFetched(t, store, "MSFT", "300", "25", "280", "250")

	w := do(t, srv, http.MethodGet, "/?forward_pe=20", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "AAPL")
	assert.NotContains(t, w.Body.String(), "MSFT")
	assert.Contains(t, w.Body.String(), `value="20"`)

	w = do(t, srv, http.MethodGet, "/?forward_pe=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid forward_pe")
}

func TestGetStock(t *testing.T) {
	srv, store, _ := newTestServer(t)
	rec, err := store.Create(context.Background(), "AAPL")
	require.NoError(t, err)

	w := do(t, srv, http.MethodGet, "/stock/"+strconv.FormatInt(rec.ID, 10), "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, "xnys", body["exchange"])
	assert.Nil(t, body["price"])

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/stock/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/stock/abc", "").Code)
}

func TestHealthAndJobs(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(t, srv, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["workers"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

// -----------------------------------------------------------------------------

func TestWebSocketFilteredUpdates(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() models.MStockUpdate {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var u models.MStockUpdate
		require.NoError(t, conn.ReadJSON(&u))
		return u
	}

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", ForwardPE: "cheap"}))
	assert.Equal(t, "ERROR", read().Type)

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", ForwardPE: "20"}))
	ack := read()
	require.Equal(t, "SUBSCRIBED", ack.Type)
	require.NotNil(t, ack.Filter)
	assert.True(t, ack.Filter.ForwardPEBelow.Valid)

	expensive := models.MStockRecord{ID: 1, Symbol: "MSFT", ForwardPE: decimal.NewNullDecimal(decimal.NewFromInt(30))}
	cheap := models.MStockRecord{ID: 2, Symbol: "KO", ForwardPE: decimal.NewNullDecimal(decimal.NewFromInt(15))}

	srv.Broadcast(models.MFetchResult{JobID: "j1", RecordID: 1, Symbol: "MSFT", Status: models.FetchStatusOK, Record: &expensive})
	srv.Broadcast(models.MFetchResult{JobID: "j2", RecordID: 2, Symbol: "KO", Status: models.FetchStatusOK, Record: &cheap})

	update := read()
	assert.Equal(t, "UPDATE", update.Type)
	require.NotNil(t, update.Result)
	assert.Equal(t, "KO", update.Result.Symbol)
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	srv, _, _ := newTestServer(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			srv.Broadcast(models.MFetchResult{Symbol: "X"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked")
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" 12.5 ", true, false)
	require.NoError(t, err)
	assert.True(t, f.ForwardPEBelow.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, f.PriceAboveMA50)
	assert.False(t, f.PriceAboveMA200)

	f, err = ParseFilter("", false, false)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())

	_, err = ParseFilter("abc", false, false)
	assert.Error(t, err)
}

func TestNormalizeSymbol(t *testing.T) {
	for in, want := range map[string]string{" aapl ": "AAPL", "brk-b": "BRK-B", "^gspc": "^GSPC", "7203.t": "7203.T"} {
		got, err := NormalizeSymbol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "   ", "A B", "<script>", strings.Repeat("A", 21), "deleteall"} {
		_, err := NormalizeSymbol(bad)
		assert.Error(t, err, bad)
	}
}
