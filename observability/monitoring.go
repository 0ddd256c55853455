package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"stranger-chat/domain"
	"stranger-chat/domain/mimetypes"

	"github.com/shirou/gopsutil/process"
)

// Gauges is the live state reported by the coordinator at snapshot time.
type Gauges struct {
	Connections int `json:"connections"`
	Registered  int `json:"registered"`
	Waiting     int `json:"waiting"`
	ActivePairs int `json:"active_pairs"`
}

// MonitoringStats aggregates every metric exposed on /stats.
type MonitoringStats struct {
	Gauges

	ConnectionsTotal  uint64            `json:"connections_total"`
	SearchesTotal     uint64            `json:"searches_total"`
	PairingsTotal     uint64            `json:"pairings_total"`
	PairingsEnded     uint64            `json:"pairings_ended"`
	TextRelayed       uint64            `json:"text_relayed"`
	ImagesRelayed     uint64            `json:"images_relayed"`
	VideosRelayed     uint64            `json:"videos_relayed"`
	TransportFailures uint64            `json:"transport_failures"`
	MediaTypes        map[string]uint64 `json:"media_types"`

	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	Goroutines    int     `json:"goroutines"`
	RSSBytes      uint64  `json:"rss_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// MonitoringManager keeps the server counters. Every method is safe for concurrent use.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process

	connections       atomic.Uint64
	searches          atomic.Uint64
	pairings          atomic.Uint64
	pairingsEnded     atomic.Uint64
	text              atomic.Uint64
	images            atomic.Uint64
	videos            atomic.Uint64
	transportFailures atomic.Uint64

	mu         sync.Mutex
	mediaTypes map[mimetypes.MIME]uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	mm := &MonitoringManager{
		log:        log,
		startedAt:  time.Now(),
		mediaTypes: make(map[mimetypes.MIME]uint64),
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
	} else {
		mm.proc = p
	}
	return mm
}

func (mm *MonitoringManager) IncrConnections()       { mm.connections.Add(1) }
func (mm *MonitoringManager) IncrSearches()          { mm.searches.Add(1) }
func (mm *MonitoringManager) IncrPairings()          { mm.pairings.Add(1) }
func (mm *MonitoringManager) IncrPairingsEnded()     { mm.pairingsEnded.Add(1) }
func (mm *MonitoringManager) IncrTransportFailures() { mm.transportFailures.Add(1) }

// RecordRelayed counts a forwarded payload. Media bodies are sniffed for their type.
func (mm *MonitoringManager) RecordRelayed(p domain.Payload) {
	switch p.Kind {
	case domain.TextPayload:
		mm.text.Add(1)
		return
	case domain.ImagePayload:
		mm.images.Add(1)
	case domain.VideoPayload:
		mm.videos.Add(1)
	default:
		return
	}

	// declared types are client controlled, only a fixed set gets its own counter
	mt := mimetypes.Bucket(mimetypes.FromDataURI(p.Body))
	mm.mu.Lock()
	mm.mediaTypes[mt]++
	mm.mu.Unlock()
}

// Snapshot merges the counters with the given gauges and the process metrics.
func (mm *MonitoringManager) Snapshot(g Gauges) MonitoringStats {
	stats := MonitoringStats{
		Gauges:            g,
		ConnectionsTotal:  mm.connections.Load(),
		SearchesTotal:     mm.searches.Load(),
		PairingsTotal:     mm.pairings.Load(),
		PairingsEnded:     mm.pairingsEnded.Load(),
		TextRelayed:       mm.text.Load(),
		ImagesRelayed:     mm.images.Load(),
		VideosRelayed:     mm.videos.Load(),
		TransportFailures: mm.transportFailures.Load(),
		MediaTypes:        make(map[string]uint64),
		Goroutines:        runtime.NumGoroutine(),
		UptimeSeconds:     int64(time.Since(mm.startedAt).Seconds()),
	}

	mm.mu.Lock()
	for mt, n := range mm.mediaTypes {
		stats.MediaTypes[string(mt)] = n
	}
	mm.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC

	if mm.proc != nil {
		if memInfo, err := mm.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		} else {
			mm.log.Debug("Failed to read process memory", "error", err)
		}
		if cpu, err := mm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		} else {
			mm.log.Debug("Failed to read process cpu", "error", err)
		}
	}
	return stats
}
