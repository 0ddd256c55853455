package observability

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"testing"

	"stranger-chat/domain"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Snapshot(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))
	gif := base64.StdEncoding.EncodeToString([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00"))

	// Given some activity
	mm.IncrConnections()
	mm.IncrConnections()
	mm.IncrSearches()
	mm.IncrPairings()
	mm.IncrPairingsEnded()
	mm.IncrTransportFailures()
	mm.RecordRelayed(domain.Payload{Kind: domain.TextPayload, Body: "hi"})
	mm.RecordRelayed(domain.Payload{Kind: domain.ImagePayload, Body: "data:image/gif;base64," + gif})
	mm.RecordRelayed(domain.Payload{Kind: domain.ImagePayload, Body: "https://media.giphy.com/x.gif"})
	mm.RecordRelayed(domain.Payload{Kind: domain.VideoPayload, Body: "data:video/mp4;base64,@@@@"})

	// When a snapshot is taken
	stats := mm.Snapshot(Gauges{Connections: 2, Registered: 2, ActivePairs: 1})

	// Then counters and gauges are reported together
	req.Equal(2, stats.Connections)
	req.Equal(1, stats.ActivePairs)
	req.Equal(uint64(2), stats.ConnectionsTotal)
	req.Equal(uint64(1), stats.SearchesTotal)
	req.Equal(uint64(1), stats.PairingsTotal)
	req.Equal(uint64(1), stats.PairingsEnded)
	req.Equal(uint64(1), stats.TransportFailures)
	req.Equal(uint64(1), stats.TextRelayed)
	req.Equal(uint64(2), stats.ImagesRelayed)
	req.Equal(uint64(1), stats.VideosRelayed)
	req.Equal(map[string]uint64{"image/gif": 1, "remote": 1, "video/mp4": 1}, stats.MediaTypes)
	req.Positive(stats.Goroutines)
}

func TestMonitoringManager_Media_Types_Are_Bounded(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given a client declaring a new media type on every image
	for i := 0; i < 1000; i++ {
		mm.RecordRelayed(domain.Payload{Kind: domain.ImagePayload, Body: fmt.Sprintf("data:x-%d/y,abc", i)})
	}
	mm.RecordRelayed(domain.Payload{Kind: domain.ImagePayload, Body: "data:image/png,abc"})

	// Then unknown types share a single counter
	stats := mm.Snapshot(Gauges{})
	req.Equal(uint64(1001), stats.ImagesRelayed)
	req.Equal(map[string]uint64{"unknown": 1000, "image/png": 1}, stats.MediaTypes)
}
