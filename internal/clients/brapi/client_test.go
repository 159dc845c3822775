package brapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dfarias/carteira/internal/interfaces"
)

func TestQuote_ParsesResponse(t *testing.T) {
	var capturedPath string
	var capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [{
				"symbol": "PETR4",
				"regularMarketPrice": 38.52,
				"regularMarketChangePercent": 1.2,
				"regularMarketDayHigh": 39.10,
				"regularMarketDayLow": 38.05
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "PETR4", "br")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if capturedPath != "/quote/PETR4" {
		t.Errorf("expected path /quote/PETR4, got %s", capturedPath)
	}
	if capturedToken != "test-token" {
		t.Errorf("token not sent, got %q", capturedToken)
	}
	if quote.Symbol != "PETR4" {
		t.Errorf("expected symbol PETR4, got %s", quote.Symbol)
	}
	if quote.Price != 38.52 {
		t.Errorf("expected price 38.52, got %.2f", quote.Price)
	}
	if quote.ChangePercent != 1.2 {
		t.Errorf("expected change 1.2, got %.2f", quote.ChangePercent)
	}
	if quote.High != 39.10 || quote.Low != 38.05 {
		t.Errorf("expected high/low 39.10/38.05, got %.2f/%.2f", quote.High, quote.Low)
	}
	if quote.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

func TestQuote_StringTypedNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"symbol": "HGLG11", "regularMarketPrice": "162.35", "regularMarketChangePercent": "N/A"}]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "HGLG11", "br")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Price != 162.35 {
		t.Errorf("expected string-typed price parsed to 162.35, got %.2f", quote.Price)
	}
	if quote.ChangePercent != 0 {
		t.Errorf("expected N/A parsed to 0, got %.2f", quote.ChangePercent)
	}
}

func TestQuote_CryptoUsesV2Endpoint(t *testing.T) {
	var capturedPath string
	var capturedQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedQuery = r.URL.Query().Get("coin")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coins": [{"coin": "BTC", "regularMarketPrice": 64250.10}]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "BTC", "crypto")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if capturedPath != "/v2/crypto" {
		t.Errorf("expected path /v2/crypto, got %s", capturedPath)
	}
	if capturedQuery != "BTC" {
		t.Errorf("expected coin=BTC, got %q", capturedQuery)
	}
	if quote.Price != 64250.10 {
		t.Errorf("expected price 64250.10, got %.2f", quote.Price)
	}
}

func TestQuote_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": true, "message": "ticker not found"}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.Quote(context.Background(), "NOPE3", "br")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
}

func TestHistory_ParsesAndOrdersBars(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	var capturedRange, capturedInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedRange = r.URL.Query().Get("range")
		capturedInterval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		// Newest-first, as some range/interval combinations return.
		resp := map[string]any{
			"results": []map[string]any{{
				"symbol": "VALE3",
				"historicalDataPrice": []map[string]any{
					{"date": base.AddDate(0, 0, 2).Unix(), "close": 62.0},
					{"date": base.AddDate(0, 0, 1).Unix(), "close": 61.0},
					{"date": base.Unix(), "close": 60.0},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	points, err := client.History(context.Background(), "VALE3", "br",
		interfaces.WithDateRange(time.Now().AddDate(0, -1, 0), time.Now()),
		interfaces.WithInterval("1d"))
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if capturedRange != "1mo" {
		t.Errorf("expected range 1mo, got %q", capturedRange)
	}
	if capturedInterval != "1d" {
		t.Errorf("expected interval 1d, got %q", capturedInterval)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			t.Errorf("points not ascending at %d", i)
		}
	}
	if points[0].Price != 60.0 || points[2].Price != 62.0 {
		t.Errorf("points misordered: first %.1f last %.1f", points[0].Price, points[2].Price)
	}
}

func TestHistory_SkipsZeroCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"symbol": "VALE3", "historicalDataPrice": [
			{"date": 1714521600, "close": 60.0},
			{"date": 1714608000, "close": null},
			{"date": 1714694400, "close": 61.5}
		]}]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	points, err := client.History(context.Background(), "VALE3", "br")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 usable points, got %d", len(points))
	}
}

func TestRangeFor(t *testing.T) {
	now := time.Now()
	cases := []struct {
		from time.Time
		want string
	}{
		{time.Time{}, "3mo"},
		{now.AddDate(0, 0, -1), "1d"},
		{now.AddDate(0, 0, -20), "1mo"},
		{now.AddDate(0, -5, 0), "6mo"},
		{now.AddDate(-1, 0, 0), "1y"},
		{now.AddDate(-4, 0, 0), "5y"},
		{now.AddDate(-10, 0, 0), "max"},
	}
	for _, tc := range cases {
		if got := rangeFor(tc.from); got != tc.want {
			t.Errorf("rangeFor(%v) = %q, want %q", tc.from, got, tc.want)
		}
	}
}
