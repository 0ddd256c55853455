package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"stranger-chat/observability"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Base URL of the chat server")
	flag.Parse()

	stats, err := fetchStats(*addr)
	if err != nil {
		log.Fatal("Error while fetching stats: ", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows(stats))
	table.Render()
}

func fetchStats(addr string) (observability.MonitoringStats, error) {
	var stats observability.MonitoringStats
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return stats, fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}
	err = json.NewDecoder(resp.Body).Decode(&stats)
	return stats, err
}

func rows(s observability.MonitoringStats) [][]string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	i := strconv.Itoa
	out := [][]string{
		{"connections", i(s.Connections)},
		{"registered", i(s.Registered)},
		{"waiting", i(s.Waiting)},
		{"active pairs", i(s.ActivePairs)},
		{"connections total", u(s.ConnectionsTotal)},
		{"searches total", u(s.SearchesTotal)},
		{"pairings total", u(s.PairingsTotal)},
		{"pairings ended", u(s.PairingsEnded)},
		{"text relayed", u(s.TextRelayed)},
		{"images relayed", u(s.ImagesRelayed)},
		{"videos relayed", u(s.VideosRelayed)},
		{"transport failures", u(s.TransportFailures)},
	}
	types := lo.Keys(s.MediaTypes)
	slices.Sort(types)
	for _, mt := range types {
		out = append(out, []string{"media " + mt, u(s.MediaTypes[mt])})
	}
	return append(out,
		[]string{"rss", fmt.Sprintf("%.1f MiB", float64(s.RSSBytes)/(1<<20))},
		[]string{"cpu", fmt.Sprintf("%.1f%%", s.CPUPercent)},
		[]string{"goroutines", i(s.Goroutines)},
		[]string{"uptime", (time.Duration(s.UptimeSeconds) * time.Second).String()},
	)
}
