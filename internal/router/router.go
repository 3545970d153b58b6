package router

import (
	"net/http"

	"shelflife-api/internal/handler"
	"shelflife-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	CatalogHandler   *handler.CatalogHandler
	InventoryHandler *handler.InventoryHandler
	BackupHandler    *handler.BackupHandler
	AdminHandler     *handler.AdminHandler
	AuthMiddleware   func(http.Handler) http.Handler
	ImagesDir        string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// Managed product images - public, read-only
	if cfg.ImagesDir != "" {
		fileServer := http.FileServer(http.Dir(cfg.ImagesDir))
		r.Handle("/images/master/*", http.StripPrefix("/images/master/", fileServer))
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Catalog endpoints
			if cfg.CatalogHandler != nil {
				r.Route("/products", func(r chi.Router) {
					r.Post("/", cfg.CatalogHandler.Register)
					r.Get("/", cfg.CatalogHandler.List)
					r.Get("/barcode/{barcode}", cfg.CatalogHandler.FindByBarcode)
					r.Patch("/{id}/name", cfg.CatalogHandler.Rename)
					r.Patch("/{id}/photo", cfg.CatalogHandler.ReplacePhoto)
					r.Delete("/{id}", cfg.CatalogHandler.Delete)
				})
			}

			// Inventory endpoints
			if cfg.InventoryHandler != nil {
				r.Route("/inventory", func(r chi.Router) {
					r.Post("/", cfg.InventoryHandler.Register)
					r.Get("/", cfg.InventoryHandler.List)
					r.Get("/product/{productID}", cfg.InventoryHandler.FindByProduct)
					r.Put("/{id}", cfg.InventoryHandler.Correct)
					r.Delete("/{id}", cfg.InventoryHandler.Delete)
				})
			}

			// Backup endpoints
			if cfg.BackupHandler != nil {
				r.Route("/backup", func(r chi.Router) {
					r.Post("/export", cfg.BackupHandler.ExportFull)
					r.Post("/import", cfg.BackupHandler.ImportFull)
					r.Post("/catalog/export", cfg.BackupHandler.ExportCatalog)
					r.Post("/catalog/import", cfg.BackupHandler.ImportCatalog)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Post("/scan", cfg.AdminHandler.RunScan)
				})
			}
		})
	})

	return r
}
