package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/chaos/pkg/agent"
	"mercator-hq/chaos/pkg/journal"
	"mercator-hq/chaos/pkg/proxy/types"
)

// maxBodyBytes bounds API request bodies.
const maxBodyBytes = 1 << 20

// defaultJournalLimit applies when /admin/journal has no limit parameter.
const defaultJournalLimit = 100

// Engine is the agent surface used by the API.
type Engine interface {
	Evaluator
	Drain(durationMs uint64, reason string)
	IsDraining() bool
	Experiments() []agent.ExperimentInfo
	InjectionCounts() map[string]uint64
	Snapshot() agent.Snapshot
}

// API serves the decision and admin endpoints.
type API struct {
	engine  Engine
	journal journal.Storage
	logger  *slog.Logger
}

// NewAPI creates the API. storage may be nil when the journal is disabled,
// in which case /admin/journal is not registered.
func NewAPI(engine Engine, storage journal.Storage, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		engine:  engine,
		journal: storage,
		logger:  logger.With("component", "api"),
	}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/decide", a.Decide)
	mux.HandleFunc("POST /admin/drain", a.Drain)
	mux.HandleFunc("GET /admin/experiments", a.Experiments)
	mux.HandleFunc("GET /admin/stats", a.Stats)
	if a.journal != nil {
		mux.HandleFunc("GET /admin/journal", a.Journal)
	}
}

// Decide evaluates the described request and returns the verdict.
func (a *API) Decide(w http.ResponseWriter, r *http.Request) {
	var req types.DecideRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if param, err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, types.NewInvalidRequestError(err.Error(), param))
		return
	}

	decision := a.engine.Evaluate(r.Context(), agent.Request{
		ID:      req.ID,
		Method:  req.Method,
		Path:    req.Path,
		Headers: req.HeaderValues(),
	})
	writeJSON(w, http.StatusOK, types.NewDecideResponse(decision))
}

// Drain stops fault injection. The body is optional.
func (a *API) Drain(w http.ResponseWriter, r *http.Request) {
	var req types.DrainRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if req.Reason == "" {
		req.Reason = "admin request"
	}

	a.engine.Drain(req.DurationMs, req.Reason)
	writeJSON(w, http.StatusOK, types.DrainResponse{
		Draining: a.engine.IsDraining(),
		Reason:   req.Reason,
	})
}

// Experiments lists the experiments in evaluation order.
func (a *API) Experiments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.NewExperimentsResponse(a.engine.Experiments(), a.engine.InjectionCounts()))
}

// Stats returns the agent counters.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.NewStatsResponse(a.engine.Snapshot()))
}

// Journal queries recorded injections. Supported parameters: experiment,
// kind, since and until (RFC 3339), limit and offset.
func (a *API) Journal(w http.ResponseWriter, r *http.Request) {
	filter, param, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.NewInvalidRequestError(err.Error(), param))
		return
	}

	events, err := a.journal.Query(r.Context(), filter)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "journal query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.NewServerError("journal query failed"))
		return
	}
	count := *filter
	count.Limit, count.Offset = 0, 0
	total, err := a.journal.Count(r.Context(), &count)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "journal count failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.NewServerError("journal count failed"))
		return
	}
	if events == nil {
		events = []*journal.Event{}
	}
	writeJSON(w, http.StatusOK, types.JournalResponse{Events: events, Total: total})
}

func parseFilter(r *http.Request) (*journal.Filter, string, error) {
	q := r.URL.Query()
	filter := &journal.Filter{
		ExperimentID: q.Get("experiment"),
		Kind:         q.Get("kind"),
		Limit:        defaultJournalLimit,
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &filter.Since}, {"until", &filter.Until}} {
		if v := q.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, p.name, errors.New(p.name + " must be an RFC 3339 timestamp")
			}
			*p.dst = t
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, p.name, errors.New(p.name + " must be a non-negative integer")
			}
			*p.dst = n
		}
	}
	return filter, "", nil
}

// decodeBody decodes a JSON body into v. An empty body is accepted when
// optional is set. On failure the 400 response is already written.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, types.NewInvalidRequestError("invalid JSON body: "+err.Error(), ""))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
