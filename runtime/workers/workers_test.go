package workers

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"stranger-chat/observability"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type staticStats struct {
	calls chan struct{}
}

func (s staticStats) Stats() observability.MonitoringStats {
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return observability.MonitoringStats{Gauges: observability.Gauges{Connections: 2, ActivePairs: 1}}
}

func TestStatsReporter_Reports_Periodically(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	source := staticStats{calls: make(chan struct{}, 1)}
	reporter := NewStatsReporter(log, source, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reporter.Run(ctx) }()

	// Then the source is polled
	select {
	case <-source.calls:
	case <-time.After(time.Second):
		req.Fail("stats were never collected")
	}

	// And the reporter stops with its context
	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestHTTPServerWorker_Serves_Until_Canceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})}
	errs := make(chan error, 1)
	worker := NewHTTPServerWorker(log, server, listener, time.Second, errs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Given the server answers
	req.Eventually(func() bool {
		resp, err := http.Get("http://" + listener.Addr().String())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	// When the worker is canceled
	cancel()

	// Then it shuts the server down without reporting a failure
	req.ErrorIs(<-done, context.Canceled)
	req.Empty(errs)
	_, err = http.Get("http://" + listener.Addr().String())
	req.Error(err)
}
