package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires middlewares and endpoints. Adjust CORS for your frontend hosts.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000", "https://*.run.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReady)
	r.Handle("/metrics", a.metrics.handler())

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		_, _ = w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		// Stateless engine operations; no field or account involved.
		api.Route("/engine", a.engineRoutes)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)

			pr.Route("/fields", func(fr chi.Router) {
				fr.Get("/", a.handleListFields)
				fr.Post("/", a.handleCreateField)
				fr.Get("/{id}", a.handleGetField)
				fr.Put("/{id}", a.handleUpdateField)
				fr.Delete("/{id}", a.handleDeleteField)
				fr.Post("/{id}/analysis", a.handleAnalyzeField)
				fr.Get("/{id}/analyses", a.handleListAnalyses)
			})
		})
	})

	return r
}

func (a *App) engineRoutes(er chi.Router) {
	er.Get("/crops", a.handleCrops)
	er.Get("/indices/catalog", a.handleIndexCatalog)
	er.Post("/indices", a.handleIndices)
	er.Post("/statistics", a.handleStatistics)
	er.Post("/health", a.handleHealth)
	er.Post("/stress", a.handleStress)
	er.Post("/yield", a.handleYield)
	er.Post("/stage", a.handleStage)
	er.Post("/anomaly", a.handleAnomaly)
	er.Post("/changes", a.handleChanges)
	er.Post("/lulc", a.handleLULC)
	er.Post("/damage", a.handleDamage)
	er.Post("/carbon", a.handleCarbon)
	er.Post("/risk", a.handleRisk)
	er.Post("/risk/conditions", a.handleRiskConditions)
	er.Post("/spatial", a.handleSpatial)
	er.Post("/analyze", a.handleAnalyze)
	er.Post("/analyze/batch", a.handleAnalyzeBatch)
}
