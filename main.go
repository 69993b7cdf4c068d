package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/summerstudio/go-meeting-queue/config"
	"github.com/summerstudio/go-meeting-queue/queue"
	"github.com/summerstudio/go-meeting-queue/server"
	"github.com/summerstudio/go-meeting-queue/store"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to database when configured; persistence is optional
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		var err error
		pool, err = pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pool.Close()
	}
	meetingStore := store.NewMeetingStore(pool)

	// Redis bridges status updates across replicas when configured
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
	}

	// Initialize the job queue
	jobQueue := queue.NewAnalysisJobQueue(cfg.Server.DataDir)

	// Load existing jobs
	if err := jobQueue.LoadJobs(); err != nil {
		log.Printf("Warning: Failed to load existing jobs: %v", err)
	}

	// Create and start the server
	srv := server.NewServer(jobQueue, cfg.Server.HTTPAddr, cfg.Server.NumWorkers,
		cfg.Server.UploadDir, meetingStore, rdb)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Printf("Meeting analysis broker started with %d workers", cfg.Server.NumWorkers)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for termination signal
	<-sigChan
	log.Println("Shutting down gracefully...")
}
