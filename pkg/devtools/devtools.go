// Package devtools exposes a small HTTP inspector over a running router:
// the compiled route table, the live navigation state, health, and
// Prometheus metrics. Mount it on a development port; it is not meant to
// face the public internet.
package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// Inspector serves the devtools endpoints.
type Inspector struct {
	router *router.Router
	logger *slog.Logger
}

// NewInspector creates an inspector over a router.
func NewInspector(r *router.Router, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{router: r, logger: logger}
}

// Handler returns the inspector's HTTP handler.
//
// Endpoints:
//
//	GET /routes   compiled route table, in match order
//	GET /state    current location, match, and per-route preload states
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus metrics (default registry)
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/routes", i.handleRoutes)
	r.Get("/state", i.handleState)
	r.Get("/healthz", i.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// routeInfo is the wire form of one route table entry.
type routeInfo struct {
	Template string   `json:"template"`
	IDs      []string `json:"ids"`
	Leaf     bool     `json:"leaf"`
}

func (i *Inspector) handleRoutes(w http.ResponseWriter, r *http.Request) {
	entries := i.router.Hierarchy().Entries()
	out := make([]routeInfo, 0, len(entries))
	for _, e := range entries {
		ids := make([]string, len(e.IDs))
		for j, id := range e.IDs {
			ids[j] = string(id)
		}
		out = append(out, routeInfo{Template: e.Template, IDs: ids, Leaf: e.Leaf})
	}
	i.writeJSON(w, out)
}

// stateInfo is the wire form of the router snapshot. Resolved values may
// hold arbitrary application data, so only their keys are reported.
type stateInfo struct {
	Location  string                    `json:"location"`
	Matched   bool                      `json:"matched"`
	Hierarchy []string                  `json:"hierarchy"`
	Params    map[string]string         `json:"params,omitempty"`
	Routes    map[string]routeStateInfo `json:"routes"`
}

type routeStateInfo struct {
	Template  string   `json:"template"`
	Loading   bool     `json:"loading"`
	Completed bool     `json:"completed"`
	Resolved  []string `json:"resolved,omitempty"`
}

func (i *Inspector) handleState(w http.ResponseWriter, r *http.Request) {
	snap := i.router.Snapshot()
	h := i.router.Hierarchy()

	info := stateInfo{
		Location:  snap.Location.String(),
		Matched:   snap.Match.Matched(),
		Hierarchy: make([]string, len(snap.Match.Hierarchy)),
		Params:    snap.Match.Params,
		Routes:    make(map[string]routeStateInfo, len(snap.RouteStates)),
	}
	for j, id := range snap.Match.Hierarchy {
		info.Hierarchy[j] = string(id)
	}
	for id, st := range snap.RouteStates {
		rsi := routeStateInfo{
			Template:  h.RouteByID(id).Template,
			Loading:   st.Loading,
			Completed: st.Completed,
		}
		for key := range st.Resolved {
			rsi.Resolved = append(rsi.Resolved, key)
		}
		info.Routes[string(id)] = rsi
	}
	i.writeJSON(w, info)
}

func (i *Inspector) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (i *Inspector) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		i.logger.Error("devtools encode failed", "error", err)
	}
}
