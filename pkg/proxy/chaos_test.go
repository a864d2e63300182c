package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/faults"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream-Path", r.URL.Path)
		_, _ = io.WriteString(w, "upstream ok")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChaosMiddleware(t *testing.T) {
	upstream := newUpstream(t)
	rp, err := NewReverseProxy(upstream.URL, quietLogger())
	if err != nil {
		t.Fatalf("NewReverseProxy() error = %v", err)
	}

	a := newTestAgent(t,
		errorExperiment("errors", "/fail", 503),
		throttleExperiment("throttle", "/slow", 1024),
		config.Experiment{ID: "reset", Enabled: true, Targeting: prefixTargeting("/reset"), Fault: config.ResetFault{}},
	)
	proxySrv := httptest.NewServer(ChaosMiddleware(a)(rp))
	defer proxySrv.Close()

	tests := []struct {
		name         string
		path         string
		wantCode     int
		wantBody     string
		wantUpstream bool
		wantDelay    string
		wantExp      string
	}{
		{name: "forwarded", path: "/ok", wantCode: 200, wantBody: "upstream ok", wantUpstream: true},
		{name: "error fault", path: "/fail/now", wantCode: 503, wantBody: faults.DefaultErrorBody, wantExp: "errors"},
		{name: "reset fault", path: "/reset", wantCode: 502, wantBody: faults.ResetBody, wantExp: "reset"},
		{name: "throttle hint", path: "/slow/file", wantCode: 200, wantBody: "upstream ok", wantUpstream: true, wantDelay: "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(proxySrv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if got := resp.Header.Get("X-Upstream-Path") != ""; got != tt.wantUpstream {
				t.Errorf("reached upstream = %v, want %v", got, tt.wantUpstream)
			}
			if got := resp.Header.Get(HeaderDelayHint); got != tt.wantDelay {
				t.Errorf("%s = %q, want %q", HeaderDelayHint, got, tt.wantDelay)
			}
			if got := resp.Header.Get(faults.HeaderExperiment); got != tt.wantExp {
				t.Errorf("%s = %q, want %q", faults.HeaderExperiment, got, tt.wantExp)
			}
		})
	}

	if got := a.TotalRequests(); got != uint64(len(tests)) {
		t.Errorf("TotalRequests() = %d, want %d", got, len(tests))
	}
}

func TestChaosMiddleware_ErrorHeaders(t *testing.T) {
	exp := errorExperiment("teapot", "/", 418)
	exp.Fault = config.ErrorFault{Status: 418, Headers: map[string]string{"Retry-After": "5"}}
	a := newTestAgent(t, exp)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler called for a blocked request")
	})
	rec := httptest.NewRecorder()
	ChaosMiddleware(a)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	if rec.Code != 418 {
		t.Errorf("code = %d, want 418", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "5" {
		t.Errorf("Retry-After = %q, want 5", got)
	}
	if got := rec.Header().Get(faults.HeaderInjected); got != "true" {
		t.Errorf("%s = %q, want true", faults.HeaderInjected, got)
	}
}

func TestNewReverseProxy_InvalidUpstream(t *testing.T) {
	tests := []string{"://bad", "ftp://host", "http://", "localhost:8080"}
	for _, upstream := range tests {
		t.Run(upstream, func(t *testing.T) {
			if _, err := NewReverseProxy(upstream, nil); err == nil {
				t.Errorf("NewReverseProxy(%q) error = nil", upstream)
			}
		})
	}
}

func TestReverseProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	rp, err := NewReverseProxy(url, quietLogger())
	if err != nil {
		t.Fatalf("NewReverseProxy() error = %v", err)
	}
	rec := httptest.NewRecorder()
	rp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("code = %d, want 502", rec.Code)
	}
}

func TestChaosMiddleware_MatchesEscapedPath(t *testing.T) {
	a := newTestAgent(t, config.Experiment{
		ID:      "encoded",
		Enabled: true,
		Targeting: config.Targeting{
			Paths:      []config.PathMatcher{{Kind: config.PathExact, Value: "/files/a%2Fb"}},
			Percentage: 100,
		},
		Fault: config.ErrorFault{Status: 500},
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := ChaosMiddleware(a)(next)

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/files/a%2Fb", 500},
		{"/files/a/b", 204},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("GET %s code = %d, want %d", tt.path, rec.Code, tt.wantCode)
		}
	}
}
