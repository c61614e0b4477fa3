package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/shop-api/internal/api"
	"github.com/phrazzld/shop-api/internal/api/middleware"
)

// setupRouter builds the HTTP routes. The sale endpoints live under /sales
// and the account and product administration under /api; both require a
// bearer token. /health and /metrics are open.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.NewMetricsMiddleware(app.metrics))

	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)
	saleHandler := api.NewSaleHandler(app.saleService, app.logger)
	accountHandler := api.NewAccountHandler(app.saleService, app.logger)
	productHandler := api.NewProductHandler(app.saleService, app.logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/sales", func(r chi.Router) {
			r.Post("/purchase", saleHandler.Purchase)
			r.Get("/products", saleHandler.ListProducts)
			r.Get("/products/{id}", saleHandler.GetProduct)
			r.Get("/history/{customer_id}", saleHandler.History)
			r.Get("/{id}", saleHandler.GetSale)
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/accounts", accountHandler.CreateAccount)
			r.Get("/accounts/{id}", accountHandler.GetAccount)
			r.Post("/accounts/{id}/credit", accountHandler.CreditAccount)

			r.Post("/products", productHandler.CreateProduct)
			r.Post("/products/{id}/restock", productHandler.RestockProduct)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", app.metrics.Handler())

	return r
}
