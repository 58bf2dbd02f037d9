// Package testutil provides testing utilities for the market price client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream endpoint response.
type MockResponse struct {
	StatusCode  int
	Body        string
	ContentType string
	Delay       time.Duration
}

// MockMarket is a configurable mock of the upstream aggregated price API.
type MockMarket struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount int
	requestTimes []time.Time
	lastPath     string
}

// NewMockMarket creates a new mock market API server.
func NewMockMarket() *MockMarket {
	mock := &MockMarket{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.requestTimes = append(mock.requestTimes, time.Now())
		mock.lastPath = r.URL.Path
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockMarket) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockMarket) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockMarket) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requestTimes = nil
	m.lastPath = ""
}

// SetHandler sets a custom handler for a specific path.
func (m *MockMarket) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockMarket) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		contentType := resp.ContentType
		if contentType == "" {
			contentType = "application/json; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetAggregatedResponse configures the aggregated endpoint for a scope and
// comma-joined ID list, e.g. scope "Crystal", ids "1001,1002".
func (m *MockMarket) SetAggregatedResponse(scope, ids string, resp MockResponse) {
	m.SetResponse(fmt.Sprintf("/aggregated/%s/%s", scope, ids), resp)
}

// RequestCount returns the number of requests made to the server.
func (m *MockMarket) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestTimes returns the arrival time of every request, in order.
func (m *MockMarket) RequestTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]time.Time, len(m.requestTimes))
	copy(out, m.requestTimes)
	return out
}

// LastPath returns the path of the most recent request.
func (m *MockMarket) LastPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPath
}

// defaultHandler serves an empty results document.
func (m *MockMarket) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"results": []}`))
}

// AggregatedResult renders one result object with a normal-quality
// data-center price, the most common upstream shape.
func AggregatedResult(itemID int64, dcPrice float64) string {
	return fmt.Sprintf(`{"itemId": %d, "nq": {"minListing": {"dc": {"price": %g}}}, "hq": {}}`, itemID, dcPrice)
}

// AggregatedBody wraps result objects into a top-level response document.
func AggregatedBody(results ...string) string {
	return fmt.Sprintf(`{"results": [%s]}`, strings.Join(results, ", "))
}

// NewPriceResponse creates a 200 OK aggregated response for the given
// results.
func NewPriceResponse(results ...string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       AggregatedBody(results...),
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
	}
}

// NewMalformedResponse creates a 200 response whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"results": [`,
	}
}
