// components/health/health.go
//
// Health component – liveness, Prometheus metrics, and a visitor probe that
// shows what the analytics enrichment sees for the current request.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/newsletter/internal/component"
	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/requestinfo"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	defs *form.Registry
}

func (c *Comp) Name() string { return "health" }

func (c *Comp) Init(d component.Deps) error {
	c.defs = d.Definitions
	return nil
}

func (c *Comp) Routes(r chi.Router) {
	r.Get("/healthz", c.healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/visitor", visitor)
}

func (c *Comp) healthz(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{"status": "ok"}
	if c.defs != nil {
		out["forms"] = c.defs.IDs()
	}
	writeJSON(w, out)
}

// visitor echoes the parsed request info.
func visitor(w http.ResponseWriter, r *http.Request) {
	ri := requestinfo.FromContext(r.Context())
	if ri == nil {
		http.Error(w, "request info not available", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ri)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Register component at package init.
func init() {
	component.Register(&Comp{})
}
