package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/useCases"
)

// Server represents an HTTP server with all routes configured. It is a thin
// layer: parse, defensively default, delegate to the aggregator.
type Server struct {
	aggregator  useCases.AggregatorService
	broadcaster useCases.Broadcaster
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, aggregator useCases.AggregatorService, broadcaster useCases.Broadcaster) *Server {
	mux := http.NewServeMux()

	server := &Server{
		aggregator:  aggregator,
		broadcaster: broadcaster,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	// Register routes
	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /tokens", s.handleTokens)
	s.mux.HandleFunc("GET /tokens/{address}", s.handleTokenByAddress)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("POST /refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.broadcaster.Handler())
}

// handleTokens answers the filtered/sorted/paginated listing.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	filter, sortSpec, page := parseQuery(r)

	result, err := s.aggregator.GetTokens(r.Context(), filter, sortSpec, page)
	if err != nil {
		http.Error(w, "failed to get tokens", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTokenByAddress(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	token, err := s.aggregator.GetByAddress(r.Context(), address)
	if err != nil {
		http.Error(w, "failed to get token", http.StatusInternalServerError)
		return
	}
	if token == nil {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	limit := intParam(r, "limit", 20)

	tokens, err := s.aggregator.SearchTokens(r.Context(), query, limit)
	if err != nil {
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":  query,
		"tokens": tokens,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.aggregator.GetStats(r.Context()))
}

// handleRefresh triggers a refresh outside the scheduler's cadence. It
// blocks until the refresh completes; refresh never errors.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.aggregator.RefreshAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseQuery maps the listing query params onto the engine's value objects,
// defaulting defensively: bad numbers are ignored, unknown sort fields and
// periods fall back inside the engine.
func parseQuery(r *http.Request) (model.TokenFilter, model.SortSpec, model.PageRequest) {
	q := r.URL.Query()

	filter := model.TokenFilter{
		MinVolume:    floatParam(q.Get("min_volume")),
		MaxVolume:    floatParam(q.Get("max_volume")),
		MinMarketCap: floatParam(q.Get("min_market_cap")),
		MaxMarketCap: floatParam(q.Get("max_market_cap")),
		MinLiquidity: floatParam(q.Get("min_liquidity")),
		Protocol:     q.Get("protocol"),
		Chain:        q.Get("chain"),
		Search:       q.Get("search"),
		Period:       q.Get("period"),
	}

	sortSpec := model.SortSpec{
		Field: q.Get("sort"),
		Desc:  !strings.EqualFold(q.Get("dir"), "asc"), // descending by default
	}

	page := model.PageRequest{
		Limit:  intParam(r, "limit", 0),
		Cursor: q.Get("cursor"),
	}

	return filter, sortSpec, page
}

func floatParam(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func intParam(r *http.Request, name string, defaultVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
