package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/questera/webintel/internal/config"
	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/registry"
	"github.com/questera/webintel/internal/core/usecase"
	"github.com/questera/webintel/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	engine     *usecase.AggregationEngine
	dispatcher *usecase.ConversationalDispatcher
	registry   *registry.Registry
	metrics    *metrics.SearchMetrics
	streams    *StreamManager
	cfg        config.Config
}

func NewRouter(
	engine *usecase.AggregationEngine,
	dispatcher *usecase.ConversationalDispatcher,
	reg *registry.Registry,
	searchMetrics *metrics.SearchMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		engine:     engine,
		dispatcher: dispatcher,
		registry:   reg,
		metrics:    searchMetrics,
		streams:    NewStreamManager(searchMetrics),
		cfg:        cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/search/classify", rt.classify)
	mux.HandleFunc("/v1/search/stream", rt.streamSearch)
	mux.HandleFunc("/v1/providers", rt.listProviders)
	mux.HandleFunc("/v1/providers/", rt.searchSingleProvider)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIOverloadWaitMs)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Text       string `json:"text"`
	Intent     string `json:"intent"`
	Urgency    string `json:"urgency"`
	Location   string `json:"location"`
	Company    string `json:"company"`
	MaxResults int    `json:"max_results"`
}

func decodeSearchQuery(r *http.Request) (domain.SearchQuery, error) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.SearchQuery{}, domain.WrapError(domain.ErrInvalidQuery, "decode request", err)
	}

	intent, err := domain.ParseIntent(req.Intent)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	urgency, err := domain.ParseUrgency(req.Urgency)
	if err != nil {
		return domain.SearchQuery{}, err
	}

	query, err := domain.NewSearchQuery(req.Text, intent, urgency)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	query.Location = strings.TrimSpace(req.Location)
	query.Company = strings.TrimSpace(req.Company)
	if req.MaxResults > 0 {
		query.MaxResults = req.MaxResults
	}
	return query, nil
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query, err := decodeSearchQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	response, err := rt.engine.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordSearch(serviceName, string(query.Urgency), len(response.Results), response.Failed, response.Answer != "", time.Since(start))
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	strategy := rt.dispatcher.ClassifyStrategy(req.Text)
	writeJSON(w, http.StatusOK, map[string]string{"strategy": string(strategy)})
}

func (rt *Router) listProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": rt.registry.Capabilities(),
	})
}

// searchSingleProvider is the debug endpoint: POST /v1/providers/{name}/search
// runs exactly one adapter.
func (rt *Router) searchSingleProvider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/providers/")
	name, action, found := strings.Cut(rest, "/")
	if !found || action != "search" || name == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	query, err := decodeSearchQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	response, err := rt.engine.SearchProvider(r.Context(), name, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
