package reporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard, both report variants and the exports.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleHome)
	r.Get("/api/summary", h.handleSummaryAPI)
	for _, v := range h.variants {
		r.Get(v.Paths.Fines, h.fines(v))
		r.Get(v.Paths.Overdue, h.overdue(v))
		r.Get(v.Paths.PopularBooks, h.popularBooks(v))
		r.Get(v.Paths.Members, h.members(v))
		r.Get(v.Paths.Inventory, h.inventory(v))
	}
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/exports/{file}", h.handleExport)
	})
}
