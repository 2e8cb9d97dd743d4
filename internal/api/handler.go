package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/erickmeikoki/job-trends-data/internal/alerts"
	"github.com/erickmeikoki/job-trends-data/internal/analytics"
	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/internal/ingest"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// maxIngestBody bounds the POST /api/v1/ingest request body.
const maxIngestBody = 16 << 20

// Handler is the HTTP handler for /healthz and all /api/v1/* endpoints. It
// reads run results from the analytics service and returns JSON responses.
type Handler struct {
	svc    *analytics.Service
	alerts *alerts.Engine
	auth   config.AuthConfig
	mux    *http.ServeMux
}

// New creates a Handler over the analytics service and alert engine and
// registers all routes. With auth mode "bearer" every /api/v1/* request
// must carry the configured token; /healthz stays open.
func New(svc *analytics.Service, ae *alerts.Engine, auth config.AuthConfig) http.Handler {
	h := &Handler{svc: svc, alerts: ae, auth: auth, mux: http.NewServeMux()}

	h.mux.HandleFunc("/healthz", h.healthz)
	h.mux.HandleFunc("/api/v1/summary", h.summary)
	h.mux.HandleFunc("/api/v1/health-index", h.healthIndex)
	h.mux.HandleFunc("/api/v1/trends", h.trends)
	h.mux.HandleFunc("/api/v1/clusters", h.clusters)
	h.mux.HandleFunc("/api/v1/forecast", h.forecast)
	h.mux.HandleFunc("/api/v1/patterns", h.patterns)
	h.mux.HandleFunc("/api/v1/quarantine", h.quarantine)
	h.mux.HandleFunc("/api/v1/alerts", h.alertHistory)
	h.mux.HandleFunc("/api/v1/runs", h.runs)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	h.mux.HandleFunc("/api/v1/ingest", h.ingest)
	h.mux.HandleFunc("/api/v1/run", h.rerun)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") && !h.authorized(r) {
		jsonErr(w, http.StatusUnauthorized, "invalid or missing bearer token")
		return
	}
	h.mux.ServeHTTP(w, r)
}

// authorized checks the Authorization header against the configured token.
// Mode "none" or an empty resolved token allows every request through.
func (h *Handler) authorized(r *http.Request) bool {
	if h.auth.Mode != "bearer" {
		return true
	}
	token := h.auth.Token()
	if token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && got == token
}

// --- route handlers ---------------------------------------------------------

// healthz returns GET /healthz — process liveness.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// summary returns GET /api/v1/summary — the latest run condensed.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, BuildSummary(res))
}

// healthIndex returns GET /api/v1/health-index — the score series with the
// engine status, so "not enough history" renders as data, not an error.
func (h *Handler) healthIndex(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status: res.Statuses[types.EngineHealth],
		Scores: res.Health,
	})
}

// trends returns GET /api/v1/trends — segments per series.
func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, TrendsResponse{
		Status: res.Statuses[types.EngineTrend],
		Series: res.Trends,
	})
}

// clusters returns GET /api/v1/clusters — skill clusters and emerging skills.
func (h *Handler) clusters(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ClustersResponse{
		Status:   res.Statuses[types.EngineCluster],
		Clusters: res.Clusters,
		Emerging: res.Emerging,
	})
}

// forecast returns GET /api/v1/forecast — projected points per series.
func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ForecastResponse{
		Status: res.Statuses[types.EngineForecast],
		Series: res.Forecasts,
	})
}

// patterns returns GET /api/v1/patterns — hiring events, growth, seasonality.
func (h *Handler) patterns(w http.ResponseWriter, r *http.Request) {
	res, ok := h.latest(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, PatternsResponse{
		Status:      res.Statuses[types.EnginePattern],
		Events:      res.Events,
		Growth:      res.Growth,
		Seasonality: res.Seasonality,
	})
}

// quarantine returns GET /api/v1/quarantine — rejected rows for the current
// snapshot.
func (h *Handler) quarantine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := h.svc.Current()
	if snap == nil {
		jsonErr(w, http.StatusNotFound, "no snapshot loaded")
		return
	}
	rows := snap.Rejected
	if rows == nil {
		rows = []types.RejectedRecord{}
	}
	jsonResp(w, http.StatusOK, QuarantineResponse{Count: len(rows), Rows: rows})
}

// alertHistory returns GET /api/v1/alerts — fired alerts, newest first.
// ?state=active narrows to currently firing alerts.
func (h *Handler) alertHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	if r.URL.Query().Get("state") == "active" {
		jsonResp(w, http.StatusOK, h.alerts.Active())
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.History())
}

// runs returns GET /api/v1/runs — persisted run history, newest first.
func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	n := 20
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			jsonErr(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}
	runs, err := h.svc.RecentRuns(r.Context(), n)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "run history unavailable")
		return
	}
	jsonResp(w, http.StatusOK, runs)
}

// diagnostics returns GET /api/v1/diagnostics — operational counters.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.svc.Diagnostics(r.Context()))
}

// ingest handles POST /api/v1/ingest — runs raw rows through validation,
// replaces the snapshot and triggers a full analysis of it.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req IngestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err := dec.Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Rows) == 0 {
		jsonErr(w, http.StatusBadRequest, "rows must not be empty")
		return
	}

	rows := make([]ingest.RawRow, len(req.Rows))
	for i, in := range req.Rows {
		rows[i] = ingest.RawRow{
			Row:        i + 1,
			ID:         in.ID,
			Date:       in.Date,
			Title:      in.Title,
			JobType:    in.JobType,
			Company:    in.Company,
			Location:   in.Location,
			Salary:     in.Salary,
			Skills:     in.Skills,
			Experience: in.Experience,
			Education:  in.Education,
			Remote:     in.Remote,
		}
	}

	records, rejected := ingest.Process(rows, ingest.Options{IDPrefix: "api"})
	res, err := h.svc.Replace(r.Context(), records, rejected)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "snapshot replace failed")
		return
	}
	jsonResp(w, http.StatusOK, IngestResponse{
		Accepted:    len(records),
		Quarantined: len(rejected),
		Run:         BuildSummary(res),
	})
}

// rerun handles POST /api/v1/run — re-analyses the current snapshot.
func (h *Handler) rerun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := h.svc.Rerun(r.Context())
	if err != nil {
		if errors.Is(err, analytics.ErrNoSnapshot) {
			jsonErr(w, http.StatusConflict, "no snapshot loaded")
			return
		}
		jsonErr(w, http.StatusInternalServerError, "analysis run failed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSummary(res))
}

// --- helpers ----------------------------------------------------------------

// latest fetches the most recent run result, writing the error response and
// reporting false when the method is wrong or no run has completed yet.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) (*types.AnalysisResult, bool) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	res := h.svc.Latest()
	if res == nil {
		jsonErr(w, http.StatusNotFound, "no completed analysis run")
		return nil, false
	}
	return res, true
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
