package workers

import (
	"context"
	"log/slog"
	"time"

	"stranger-chat/observability"
)

// StatsSource is implemented by runtime.Coordinator.
type StatsSource interface {
	Stats() observability.MonitoringStats
}

// StatsReporter logs a snapshot of the server activity at a fixed interval.
type StatsReporter struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration
}

func NewStatsReporter(log *slog.Logger, source StatsSource, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, source: source, interval: interval}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	w.log.Info("Starting stats reporter", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *StatsReporter) report() {
	s := w.source.Stats()
	w.log.Info("Server stats",
		"connections", s.Connections,
		"registered", s.Registered,
		"waiting", s.Waiting,
		"active_pairs", s.ActivePairs,
		"pairings_total", s.PairingsTotal,
		"relayed", s.TextRelayed+s.ImagesRelayed+s.VideosRelayed,
		"transport_failures", s.TransportFailures,
		"rss_bytes", s.RSSBytes,
		"cpu_percent", s.CPUPercent,
		"goroutines", s.Goroutines,
	)
}
