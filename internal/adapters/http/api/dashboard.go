package api

import (
	"net/http"
)

// dashboardHandler serves the statistics dashboard.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard. The page fetches /api/statistics,
// draws the charts and posts them back when a report is requested.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, dashboardFS, "dashboard.html")
}
