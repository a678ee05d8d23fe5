package store

import (
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/navlog/internal/httputil"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// AttachAdminRoutes mounts a live SQL console and the run history under
// /debug/. These routes are meant for localhost or tailnet access only.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB(db.dialect.Name()+"://navlog", db.DB, &tailsql.DBOptions{
		Label: "Navigation telemetry",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.HandleFunc("runs", "Recent ingestion runs", func(w http.ResponseWriter, r *http.Request) {
		if !httputil.RequireGET(w, r) {
			return
		}
		limit, err := httputil.QueryLimit(r, defaultRunsLimit, maxRunsLimit)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		runs, err := db.RecentRuns(r.Context(), limit)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, runs)
	})
	return nil
}
