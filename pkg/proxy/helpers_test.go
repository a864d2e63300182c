package proxy

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"mercator-hq/chaos/pkg/agent"
	"mercator-hq/chaos/pkg/config"
)

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) {}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func prefixTargeting(prefix string) config.Targeting {
	return config.Targeting{
		Paths:      []config.PathMatcher{{Kind: config.PathPrefix, Value: prefix}},
		Percentage: 100,
	}
}

func newTestAgent(t testing.TB, experiments ...config.Experiment) *agent.Agent {
	t.Helper()
	cfg := config.Default()
	cfg.Experiments = experiments
	return agent.New(cfg, agent.WithSleeper(noSleep{}), agent.WithLogger(quietLogger()))
}

func errorExperiment(id, prefix string, status int) config.Experiment {
	return config.Experiment{
		ID:        id,
		Enabled:   true,
		Targeting: prefixTargeting(prefix),
		Fault:     config.ErrorFault{Status: status},
	}
}

func latencyExperiment(id, prefix string, ms uint64) config.Experiment {
	return config.Experiment{
		ID:        id,
		Enabled:   true,
		Targeting: prefixTargeting(prefix),
		Fault:     config.LatencyFault{FixedMs: ms},
	}
}

func throttleExperiment(id, prefix string, bps uint64) config.Experiment {
	return config.Experiment{
		ID:        id,
		Enabled:   true,
		Targeting: prefixTargeting(prefix),
		Fault:     config.ThrottleFault{BytesPerSecond: bps},
	}
}
