package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Spok95/esencia/internal/domain/inventory"
	"github.com/Spok95/esencia/internal/domain/pricing"
)

type Deps struct {
	Store *inventory.Store
	Log   *slog.Logger

	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer

	ReportTitle       string
	ReportRowsPerPage int
	DefaultOverheads  pricing.Overheads
	Now               func() time.Time
}

type api struct {
	Deps
}

func Router(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	a := &api{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", a.listMaterials)
			r.Post("/", a.saveMaterial)
			r.Get("/prices.xlsx", a.exportPrices)
			r.Post("/prices.xlsx", a.importPrices)
			r.Get("/{id}", a.getMaterial)
			r.Delete("/{id}", a.deleteMaterial)
		})
		r.Route("/packaging", func(r chi.Router) {
			r.Get("/", a.listPackaging)
			r.Post("/", a.savePackaging)
			r.Delete("/{id}", a.deletePackaging)
		})
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", a.listRecipes)
			r.Post("/", a.saveRecipe)
			r.Get("/{id}", a.getRecipe)
			r.Delete("/{id}", a.deleteRecipe)
			r.Get("/{id}/costing", a.recipeCosting)
			r.Post("/{id}/ingredients", a.addIngredient)
			r.Post("/{id}/produce", a.produce)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", a.listSales)
			r.Post("/", a.sell)
			r.Delete("/{id}", a.deleteSale)
		})
		r.Post("/pricing/quote", a.quote)
		r.Get("/dashboard", a.dashboard)
		r.Get("/alerts/low-stock", a.lowStock)
		r.Get("/movements", a.movements)
		r.Get("/reports/sales.xlsx", a.salesReport)
		r.Get("/backup", a.exportBackup)
		r.Post("/backup", a.importBackup)
	})
	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
