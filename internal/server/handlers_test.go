package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dfarias/carteira/internal/app"
	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
	"github.com/dfarias/carteira/internal/services/portfolio"
	"github.com/dfarias/carteira/internal/storage/memory"
)

type stubMarket struct{}

func (stubMarket) Quote(_ context.Context, symbol, _ string) (*models.Quote, error) {
	return nil, errors.New("no market data in tests")
}

func (stubMarket) History(_ context.Context, _, _ string, _ ...interfaces.HistoryOption) ([]models.PricePoint, error) {
	return nil, errors.New("no market data in tests")
}

type stubFX struct{}

func (stubFX) USDRate(_ context.Context) (float64, error) { return 5.0, nil }

// newTestServer creates a test server backed by the in-memory store.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	store := memory.NewStore(logger)
	t.Cleanup(func() { store.Close() })

	svc := portfolio.NewService(store, stubMarket{}, stubFX{}, logger)

	a := &app.App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Portfolio: svc,
	}

	s := &Server{app: a, logger: logger}
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.server = &http.Server{Handler: applyMiddleware(mux, logger)}
	return s
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

func doRequest(s *Server, method, path string, body *bytes.Buffer, userID string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestBuyThenListHoldings(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryStocks, Ticker: "VALE3", Name: "Vale", Quantity: 10, Price: 60,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("buy status = %d: %s", rec.Code, rec.Body.String())
	}

	var holding models.Holding
	if err := json.Unmarshal(rec.Body.Bytes(), &holding); err != nil {
		t.Fatal(err)
	}
	if holding.ID == "" || holding.Quantity != 10 {
		t.Errorf("unexpected holding: %+v", holding)
	}

	rec = doRequest(s, http.MethodGet, "/api/holdings", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var list struct {
		Holdings []models.Holding `json:"holdings"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 || len(list.Holdings) != 1 {
		t.Fatalf("count = %d, holdings = %d", list.Count, len(list.Holdings))
	}
	if list.Holdings[0].Ticker != "VALE3" {
		t.Errorf("ticker = %q", list.Holdings[0].Ticker)
	}
}

func TestBuyValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: "boats", Ticker: "X", Quantity: 1, Price: 1,
	}), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBuyMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/holdings/buy", bytes.NewBufferString("{nope"), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSellReturnsRealizedResult(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryStocks, Ticker: "PETR4", Quantity: 20, Price: 150,
	}), "")

	rec := doRequest(s, http.MethodPost, "/api/holdings/sell", jsonBody(t, interfaces.SellInput{
		Category: models.CategoryStocks, Ticker: "PETR4", Quantity: 20, Price: 180,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sell status = %d: %s", rec.Code, rec.Body.String())
	}

	var result interfaces.SellResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Removed {
		t.Error("expected position removed")
	}
	if result.ProfitLoss != 600 {
		t.Errorf("realized = %v, want 600", result.ProfitLoss)
	}
}

func TestSellUnknownHolding(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/holdings/sell", jsonBody(t, interfaces.SellInput{
		Category: models.CategoryStocks, Ticker: "GHOST3", Quantity: 1, Price: 10,
	}), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUserIsolationViaHeader(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryStocks, Ticker: "VALE3", Quantity: 10, Price: 60,
	}), "alice")

	rec := doRequest(s, http.MethodGet, "/api/holdings", nil, "bob")
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 0 {
		t.Errorf("bob sees %d of alice's holdings", list.Count)
	}

	rec = doRequest(s, http.MethodGet, "/api/holdings", nil, "alice")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 {
		t.Errorf("alice sees %d holdings, want 1", list.Count)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryUSAStocks, Ticker: "AAPL", Quantity: 2, Price: 100,
	}), "")

	rec := doRequest(s, http.MethodGet, "/api/summary", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rec.Code, rec.Body.String())
	}

	var summary models.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	// 200 USD invested at rate 5 = 1000 BRL.
	if summary.TotalInvested != 1000 {
		t.Errorf("totalInvested = %v, want 1000", summary.TotalInvested)
	}
}

func TestSeriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	purchase := time.Now().AddDate(0, -2, 0).Format("2006-01-02")
	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryCDB, Name: "CDB 12%", Quantity: 1, Price: 1000,
		InterestRate: 12, PurchaseDate: purchase,
	}), "")

	rec := doRequest(s, http.MethodGet, "/api/series?period=1m", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("series status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Period string               `json:"period"`
		Points []models.SeriesPoint `json:"points"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Period != "1m" {
		t.Errorf("period = %q, want 1m", body.Period)
	}
	if len(body.Points) == 0 {
		t.Error("no series points returned")
	}
}

func TestSeriesChartReturnsPNG(t *testing.T) {
	s := newTestServer(t)

	purchase := time.Now().AddDate(0, -2, 0).Format("2006-01-02")
	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryCDB, Name: "CDB 12%", Quantity: 1, Price: 1000,
		InterestRate: 12, PurchaseDate: purchase,
	}), "")

	rec := doRequest(s, http.MethodGet, "/api/series/chart?period=1m", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("chart status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if rec.Body.Len() < 8 {
		t.Fatalf("PNG too short: %d bytes", rec.Body.Len())
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/holdings/buy", jsonBody(t, interfaces.BuyInput{
		Category: models.CategoryStocks, Ticker: "VALE3", Quantity: 10, Price: 60,
	}), "")

	rec := doRequest(s, http.MethodGet, "/api/transactions", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("transactions status = %d", rec.Code)
	}

	var body struct {
		Transactions []models.Transaction `json:"transactions"`
		Count        int                  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
	if body.Transactions[0].Type != models.TransactionBuy {
		t.Errorf("type = %q, want buy", body.Transactions[0].Type)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/holdings", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") == "" {
		t.Error("Allow header missing")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodOptions, "/api/holdings", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS origin header missing")
	}
}
