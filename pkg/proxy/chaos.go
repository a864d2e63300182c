package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"mercator-hq/chaos/pkg/agent"
	"mercator-hq/chaos/pkg/faults"
	"mercator-hq/chaos/pkg/proxy/types"
	"mercator-hq/chaos/pkg/telemetry/logging"
)

// HeaderDelayHint carries the computed delay of an allowed request.
const HeaderDelayHint = "X-Chaos-Delay-Ms"

// Evaluator decides what to do with a request.
type Evaluator interface {
	Evaluate(ctx context.Context, req agent.Request) agent.Decision
}

// ChaosMiddleware evaluates every request before next sees it. Blocked
// requests are answered with the fault response; allowed requests continue
// to next with the delay hint, if any, set on the response.
func ChaosMiddleware(engine Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := engine.Evaluate(r.Context(), agent.Request{
				ID:      logging.GetRequestID(r.Context()),
				Method:  r.Method,
				Path:    r.URL.EscapedPath(),
				Headers: r.Header,
			})

			out := decision.Outcome
			if out.Blocked() {
				WriteOutcome(w, out)
				return
			}
			if out.HasDelay() {
				w.Header().Set(HeaderDelayHint, strconv.FormatInt(out.DelayMs(), 10))
			}
			if decision.ExperimentID != "" {
				r = r.WithContext(logging.WithExperiment(r.Context(), decision.ExperimentID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteOutcome writes a block outcome as the HTTP response.
func WriteOutcome(w http.ResponseWriter, out faults.Outcome) {
	for name, values := range out.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.WriteHeader(out.Status)
	_, _ = w.Write(out.Body)
}

// NewReverseProxy builds the upstream forwarder. Upstream failures are
// answered 502 with a JSON error.
func NewReverseProxy(upstream string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", upstream, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme must be http or https", upstream)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q: missing host", upstream)
	}
	if logger == nil {
		logger = slog.Default()
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "upstream request failed",
				"upstream", target.Host,
				"error", err,
			)
			writeJSON(w, http.StatusBadGateway, types.NewBadGatewayError("upstream request failed"))
		},
	}
	return rp, nil
}
