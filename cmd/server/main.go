package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nepseutils/stock-backoffice/internal/api"
	"github.com/nepseutils/stock-backoffice/internal/config"
	"github.com/nepseutils/stock-backoffice/internal/database"
	"github.com/nepseutils/stock-backoffice/internal/repository"
	"github.com/nepseutils/stock-backoffice/internal/scheduler"
	"github.com/nepseutils/stock-backoffice/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply schema migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	companyRepo := repository.NewCompanyRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	actionRepo := repository.NewActionRepository(db)

	// Create services
	systemService, err := service.NewSystemService(db, cfg.Security.FernetKey)
	if err != nil {
		log.Fatalf("Failed to initialize system service: %v", err)
	}
	companyService := service.NewCompanyService(companyRepo)
	adjustmentService := service.NewAdjustmentService(db, priceRepo, actionRepo, companyRepo)
	priceService := service.NewPriceService(priceRepo, actionRepo, adjustmentService)
	actionService := service.NewActionService(actionRepo, companyRepo, adjustmentService)
	recalcService := service.NewRecalcService(adjustmentService, priceRepo, actionRepo)

	// Create router
	router := api.NewRouter(api.Services{
		System:  systemService,
		Company: companyService,
		Price:   priceService,
		Action:  actionService,
		Recalc:  recalcService,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Nightly recalculation scheduler
	sched := scheduler.New(recalcService, cfg.Recalc.Schedule)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if cfg.Recalc.Schedule == "" {
			log.Println("Recalculation scheduler disabled")
			return nil
		}
		return sched.Start()
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Println("Shutting down server...")
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited")
}
