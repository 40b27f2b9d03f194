package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"happy-store/config"
	"happy-store/internal/api"
	"happy-store/internal/broker"
	"happy-store/internal/controller"
	"happy-store/internal/localstore"
	"happy-store/internal/syncclient"
	"happy-store/internal/util"
	"happy-store/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting happy-store server")

	tp, err := util.InitTracer("happy-store", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	local, err := localstore.Open(cfg.Server.DataDir)
	if err != nil {
		log.Fatalf("Failed to open local snapshot store: %v", err)
	}
	defer local.Close()
	log.Println("Local snapshot store opened")

	remote := syncclient.New(cfg.Remote.URL, cfg.Server.Env)

	var eventPublisher *broker.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		eventPublisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	debounce := time.Duration(cfg.Sync.DebounceMs) * time.Millisecond
	ctrl := controller.New(local, remote, eventPublisher, debounce)
	ctrl.Start(context.Background())

	var backupWorker *worker.BackupWorker
	if cfg.Sync.BackupCron != "" {
		backupWorker = worker.NewBackupWorker(ctrl, cfg.Sync.BackupDir)
		if err := backupWorker.Start(cfg.Sync.BackupCron); err != nil {
			log.Fatalf("Failed to start backup worker: %v", err)
		}
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(ctrl)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if backupWorker != nil {
		backupWorker.Stop()
	}

	// One last push so a clean shutdown leaves the remote current.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := ctrl.ForceSync(flushCtx); err != nil {
		log.Printf("Final sync failed: %v", err)
	}

	log.Println("Server exited")
}
