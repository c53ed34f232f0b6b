package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vazimax/BuyMin/config"
	"github.com/Vazimax/BuyMin/controllers"
	"github.com/Vazimax/BuyMin/jobs"
	auth "github.com/Vazimax/BuyMin/middleware"
	"github.com/Vazimax/BuyMin/repository"
)

// Dependencies are the services the router hands to controllers.
// Ingester may be nil, in which case the brochure routes are not mounted.
type Dependencies struct {
	Server   config.ServerConfig
	Store    repository.PriceStore
	Exporter controllers.Exporter
	Ingester controllers.BrochureIngester
	Worker   *jobs.IngestionWorker
}

func SetupRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS Configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	products := &controllers.ProductController{Store: deps.Store, Exporter: deps.Exporter}
	r.Get("/products", products.ListProducts)
	r.Get("/products/export.xlsx", products.ExportProducts)
	r.Get("/supermarkets", products.ListSupermarkets)

	offers := &controllers.OfferController{Store: deps.Store}
	r.Post("/prices/{price_id}/offers", offers.CreateOffer)

	if deps.Ingester != nil {
		brochures := &controllers.BrochureController{
			Ingester:       deps.Ingester,
			MaxUploadBytes: deps.Server.MaxUploadMB << 20,
		}
		if deps.Worker != nil {
			brochures.Queue = deps.Worker
		}

		// Ingestion (API Key protected)
		r.Group(func(r chi.Router) {
			r.Use(auth.APIKeyMiddleware(deps.Server.IngestionAPIKey))
			r.Post("/brochures", brochures.UploadBrochure)
		})
	}

	// Server-Sent Events for finished ingestion runs
	if deps.Worker != nil {
		r.Get("/sse/ingestions", IngestionSSE(deps.Worker))
	}

	return r
}
