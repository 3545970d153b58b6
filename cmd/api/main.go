package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shelflife-api/internal/assets"
	"shelflife-api/internal/backup"
	"shelflife-api/internal/cache"
	"shelflife-api/internal/config"
	"shelflife-api/internal/handler"
	"shelflife-api/internal/middleware"
	"shelflife-api/internal/repository"
	"shelflife-api/internal/router"
	"shelflife-api/internal/service"
	"shelflife-api/pkg/fsutil"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting ShelfLife API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Prepare the on-disk layout before anything opens files in it
	for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.ImagesDir(), cfg.Storage.BackupDir(), cfg.Storage.ScratchDir()} {
		if err := fsutil.EnsureDir(dir); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	// Open the SQLite store
	store, err := repository.OpenStore(cfg.Storage.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	catalogRepo := repository.NewSQLiteCatalogRepository(store)
	inventoryRepo := repository.NewSQLiteInventoryRepository(store)

	// Initialize listing cache. Redis failures degrade to memory so a
	// missing Redis never takes the API down.
	var listCache cache.Cache
	cacheType := cfg.Cache.Type
	switch cacheType {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
			listCache = cache.NewMemoryCache()
			cacheType = "memory"
		} else {
			listCache = redisCache
			log.Println("Redis cache initialized")
		}
	default:
		listCache = cache.NewMemoryCache()
		log.Println("Memory cache initialized")
	}
	defer listCache.Close()

	// Managed image directory and filename normalizer
	paths := assets.Paths{ImagesDir: cfg.Storage.ImagesDir()}
	normalizer := assets.NewNormalizer(catalogRepo, paths)

	// Services
	catalogService := service.NewCatalogService(catalogRepo, paths, listCache, cfg.Cache.TTL)
	inventoryService := service.NewInventoryService(inventoryRepo, listCache, cfg.Cache.TTL)

	// Backup engine. Restores replace the database wholesale, so cached
	// listings must go with it.
	engine := backup.NewEngine(store, catalogRepo, normalizer, paths, cfg.Storage.ScratchDir(), cfg.Storage.DBName)
	engine.OnRestore = func() {
		if err := listCache.Clear(context.Background()); err != nil {
			log.Printf("Warning: cache clear after restore failed: %v", err)
		}
	}

	// Background expiry scanner
	scanner := service.NewExpiryScanner(inventoryService, service.ScanConfig{
		Interval:     cfg.Scan.Interval,
		InitialDelay: cfg.Scan.InitialDelay,
	})
	if cfg.Scan.Enabled {
		scanner.Start()
	}

	// Initialize handlers
	healthHandler := handler.New(store, cfg.App.Version)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	backupHandler := handler.NewBackupHandler(engine, &backup.LocalDirSharer{Dir: cfg.Storage.BackupDir()}, cfg.Storage.ScratchDir())
	adminHandler := handler.NewAdminHandler(store, scanner, cacheType)

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKey: cfg.App.APIKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		CatalogHandler:   catalogHandler,
		InventoryHandler: inventoryHandler,
		BackupHandler:    backupHandler,
		AdminHandler:     adminHandler,
		AuthMiddleware:   authMiddleware,
		ImagesDir:        cfg.Storage.ImagesDir(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	scanner.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
