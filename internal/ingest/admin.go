package ingest

import (
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/navlog/internal/httputil"
	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/monitoring"
)

type statusResponse struct {
	Stats  Stats              `json:"stats"`
	Frames *mip.FrameStats    `json:"frames,omitempty"`
	Totals map[string]uint64  `json:"event_totals"`
	Events []monitoring.Event `json:"recent_events"`
}

// AttachAdminRoutes mounts the loop counters and recent events at
// /debug/ingest.
func (l *Loop) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("ingest", "Ingestion counters and recent events", func(w http.ResponseWriter, r *http.Request) {
		if !httputil.RequireGET(w, r) {
			return
		}
		resp := statusResponse{
			Stats:  l.Stats(),
			Totals: l.events.Totals(),
			Events: l.events.Recent(),
		}
		if fs, ok := l.src.(interface{ FrameStats() mip.FrameStats }); ok {
			frames := fs.FrameStats()
			resp.Frames = &frames
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	})
}
