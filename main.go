package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dwelr/minevault/internal/api"
	"github.com/dwelr/minevault/internal/config"
	"github.com/dwelr/minevault/internal/database"
	"github.com/dwelr/minevault/internal/logger"
	"github.com/dwelr/minevault/internal/minecraft"
	"github.com/dwelr/minevault/internal/monitoring"
	"github.com/dwelr/minevault/internal/services"
	"github.com/dwelr/minevault/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Ensure the base directory for backup output exists
	if err := os.MkdirAll(cfg.BackupPath, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create base backup directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db)
	saveGuard := minecraft.NewSaveGuard(cfg.RCONAddress, cfg.RCONPassword)
	backupService := services.NewBackupService(db, eventService, hub, saveGuard, cfg.MinecraftPath, cfg.BackupPath)
	scheduleService := services.NewScheduleService(db, eventService)

	// Set up and run the backup volume watchdog
	diskMonitor := monitoring.NewDiskMonitor(cfg.BackupPath, uint64(cfg.DiskMinFreeMB)*1024*1024, eventService)
	go diskMonitor.Run()

	// Set up and run the background scheduler
	scheduler := monitoring.NewScheduler(scheduleService, backupService, eventService)
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(hub, backupService, scheduleService, eventService, userService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	diskMonitor.Stop()
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
