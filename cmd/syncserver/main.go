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
	"happy-store/internal/blobstore"
	"happy-store/internal/util"

	"github.com/gin-gonic/gin"
)

// syncserver is the remote half of the sync protocol: one logical resource
// supporting GET (return the aggregate blob) and POST (replace it entirely).
func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	defer store.Close()
	log.Printf("Blob store ready: driver=%s", cfg.Storage.Driver)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/api/storage", func(c *gin.Context) {
		data, err := store.Get(c.Request.Context())
		if err != nil {
			// 500, not 404: the client must see a server error rather than a
			// missing route, or it would misclassify as local-only.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Database operation failed",
				"details": err.Error(),
			})
			return
		}
		if data == nil {
			c.Data(http.StatusOK, "application/json", []byte("null"))
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})

	router.POST("/api/storage", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		if err := store.Set(c.Request.Context(), body); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Database operation failed",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	port := getPort()
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting sync server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sync server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Sync server exited")
}

func openStore(cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return blobstore.NewPostgresStore(cfg.Database.URL)
	case "redis":
		return blobstore.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

func getPort() string {
	if p := os.Getenv("SYNCSERVER_PORT"); p != "" {
		return p
	}
	return "8090"
}
