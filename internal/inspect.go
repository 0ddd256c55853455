package internal

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"stranger-chat/observability"
	"stranger-chat/runtime"

	"github.com/samber/lo"
)

//go:embed inspect.html
var templatesFS embed.FS

var inspectTemplate = template.Must(template.ParseFS(templatesFS, "inspect.html"))

type InspectRow struct {
	ConnID      string
	Name        string
	Gender      string
	State       string
	Preference  string
	Partner     string
	WaitingRank int
}

type PageData struct {
	Rows  []InspectRow
	Stats observability.MonitoringStats
}

func inspectHandler(log *slog.Logger, state StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := PageData{
			Rows:  lo.Map(state.Sessions(), func(v runtime.SessionView, _ int) InspectRow { return toRow(v) }),
			Stats: state.Stats(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := inspectTemplate.Execute(w, data); err != nil {
			log.Warn("Failed to render inspector", "error", err)
		}
	})
}

func toRow(v runtime.SessionView) InspectRow {
	row := InspectRow{
		ConnID:      shortID(string(v.ID)),
		Name:        "-",
		Gender:      "-",
		State:       v.State.String(),
		Preference:  "-",
		Partner:     "-",
		WaitingRank: v.WaitingRank,
	}
	if v.Registered {
		row.Name = v.Profile.DisplayName
		row.Gender = string(v.Profile.Gender)
	}
	if v.Preference != "" {
		row.Preference = string(v.Preference)
	}
	if v.Partner != "" {
		row.Partner = shortID(string(v.Partner))
	}
	return row
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
