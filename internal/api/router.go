package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nepseutils/stock-backoffice/internal/api/handlers"
	custommiddleware "github.com/nepseutils/stock-backoffice/internal/api/middleware"
	"github.com/nepseutils/stock-backoffice/internal/config"
	"github.com/nepseutils/stock-backoffice/internal/service"
)

// Services bundles the service-layer dependencies the router needs.
type Services struct {
	System  *service.SystemService
	Company *service.CompanyService
	Price   *service.PriceService
	Action  *service.ActionService
	Recalc  *service.RecalcService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/vendor-token", systemHandler.VendorTokenInfo)
			r.Put("/vendor-token", systemHandler.SetVendorToken)
		})

		// Company reference data
		r.Route("/company", func(r chi.Router) {
			companyHandler := handlers.NewCompanyHandler(svc.Company)
			r.Get("/", companyHandler.GetAllCompanies)
			r.Post("/", companyHandler.CreateCompany)

			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", companyHandler.GetCompany)
				r.Put("/", companyHandler.UpdateCompany)
				r.Delete("/", companyHandler.DeleteCompany)
			})
		})

		// Price history
		r.Route("/price", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(svc.Price)
			r.Post("/import", priceHandler.ImportPrices)

			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", priceHandler.GetRawPrices)
				r.Get("/adjusted", priceHandler.GetAdjustedPrices)
			})
		})

		// Corporate actions
		r.Route("/action", func(r chi.Router) {
			actionHandler := handlers.NewActionHandler(svc.Action)
			r.Get("/", actionHandler.GetAllActions)
			r.Post("/", actionHandler.CreateAction)
			r.Post("/import", actionHandler.ImportActions)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", actionHandler.GetAction)
				r.Put("/", actionHandler.UpdateAction)
				r.Delete("/", actionHandler.DeleteAction)
			})
		})

		// Batch recalculation
		r.Route("/recalculate", func(r chi.Router) {
			recalcHandler := handlers.NewRecalcHandler(svc.Recalc)
			r.Post("/", recalcHandler.StartRecalculation)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", recalcHandler.GetJob)
				r.Delete("/", recalcHandler.ClearJob)
			})
		})
	})

	return r
}
