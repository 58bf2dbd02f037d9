// Command price-proxy exposes the market price coordinator over HTTP for
// local development and for UI frontends that cannot call the upstream API
// directly.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xivdye/market-client/pkg/client"
	"github.com/xivdye/market-client/pkg/coordinator"
	"github.com/xivdye/market-client/pkg/logging"
	"github.com/xivdye/market-client/pkg/prices"
	"github.com/xivdye/market-client/pkg/storage"
)

// proxyConfig is read from the environment with the PRICEPROXY_ prefix.
type proxyConfig struct {
	Port      string `default:"8080"`
	Scope     string `default:"Crystal"`
	BaseURL   string `envconfig:"BASE_URL" default:"https://universalis.app/api/v2"`
	CachePath string `envconfig:"CACHE_PATH"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY"`
}

func main() {
	var cfg proxyConfig
	if err := envconfig.Process("priceproxy", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	// Persistent cache when a path is configured, in-memory otherwise.
	var store storage.Store = storage.NewMemoryStore()
	if cfg.CachePath != "" {
		boltStore, err := storage.NewBoltStore(cfg.CachePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.CachePath).Msg("Failed to open cache database")
		}
		defer boltStore.Close()
		store = boltStore
		logger.Info().Str("path", cfg.CachePath).Msg("Using persistent price cache")
	}

	clientCfg := client.DefaultConfig(store)
	clientCfg.BaseURL = cfg.BaseURL
	marketClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create market client")
	}

	ctx := context.Background()
	coord, err := coordinator.New(ctx, coordinator.Config{
		Fetcher: marketClient,
		Store:   store,
		Scope:   cfg.Scope,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create coordinator")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /prices/{scope}/{ids}", pricesHandler(coord))
	mux.HandleFunc("PUT /scope/{scope}", scopeHandler(coord))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("scope", cfg.Scope).
			Msg("Starting price proxy")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// pricesHandler serves GET /prices/{scope}/{ids} where ids is a
// comma-joined item ID list.
func pricesHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := r.PathValue("scope")
		itemIDs, err := parseIDList(r.PathValue("ids"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// The coordinator fetches against its own current scope.
		coord.SetScope(scope)

		items := make([]prices.Item, len(itemIDs))
		for i, id := range itemIDs {
			items[i] = prices.Item{ID: id, Category: prices.CategoryBaseDye}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		results := coord.FetchPrices(ctx, items, nil)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			http.Error(w, "encode response", http.StatusInternalServerError)
		}
	}
}

// scopeHandler switches the coordinator's market scope.
func scopeHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := r.PathValue("scope")
		if scope == "" {
			http.Error(w, "scope required", http.StatusBadRequest)
			return
		}
		coord.SetScope(scope)
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
