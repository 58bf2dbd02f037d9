package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xivdye/market-client/internal/testutil"
	"github.com/xivdye/market-client/pkg/client"
	"github.com/xivdye/market-client/pkg/coordinator"
	"github.com/xivdye/market-client/pkg/prices"
	"github.com/xivdye/market-client/pkg/storage"
)

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body OK, got %q", body)
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "single id", raw: "1001", want: []int64{1001}},
		{name: "multiple ids", raw: "1,2,3", want: []int64{1, 2, 3}},
		{name: "spaces tolerated", raw: "1, 2", want: []int64{1, 2}},
		{name: "non-numeric", raw: "1,abc", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDList(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Error("parseIDList() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDList() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseIDList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseIDList()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func newTestCoordinator(t *testing.T, mock *testutil.MockMarket) *coordinator.Coordinator {
	t.Helper()

	store := storage.NewMemoryStore()
	cfg := client.DefaultConfig(store)
	cfg.BaseURL = mock.URL()
	cfg.RetryDelay = 5 * time.Millisecond
	cfg.MinRequestSpacing = 0

	marketClient, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	coord, err := coordinator.New(context.Background(), coordinator.Config{
		Fetcher: marketClient,
		Store:   store,
		Scope:   "Crystal",
	})
	if err != nil {
		t.Fatalf("coordinator.New() error = %v", err)
	}
	return coord
}

func TestPricesEndpoint(t *testing.T) {
	mock := testutil.NewMockMarket()
	defer mock.Close()
	mock.SetAggregatedResponse("Crystal", "1001,1002", testutil.NewPriceResponse(
		testutil.AggregatedResult(1001, 420),
		testutil.AggregatedResult(1002, 550),
	))

	coord := newTestCoordinator(t, mock)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/{scope}/{ids}", pricesHandler(coord))

	req := httptest.NewRequest("GET", "/prices/Crystal/1001,1002", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var results map[int64]prices.Record
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results size = %d, want 2", len(results))
	}
	if results[1001].CurrentMinPrice != 420 || results[1002].CurrentMinPrice != 550 {
		t.Errorf("results = %+v, want prices 420 and 550", results)
	}
}

func TestPricesEndpoint_BadIDs(t *testing.T) {
	mock := testutil.NewMockMarket()
	defer mock.Close()
	coord := newTestCoordinator(t, mock)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/{scope}/{ids}", pricesHandler(coord))

	req := httptest.NewRequest("GET", "/prices/Crystal/notanid", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

func TestScopeEndpoint(t *testing.T) {
	mock := testutil.NewMockMarket()
	defer mock.Close()
	coord := newTestCoordinator(t, mock)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /scope/{scope}", scopeHandler(coord))

	req := httptest.NewRequest("PUT", "/scope/Aether", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Result().StatusCode)
	}
	if coord.Scope() != "Aether" {
		t.Errorf("scope = %q, want Aether", coord.Scope())
	}
}
