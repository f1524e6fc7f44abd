package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maverick-lab/filebox/internal/config"
	"github.com/maverick-lab/filebox/internal/queue"
	"github.com/maverick-lab/filebox/internal/storage"
	"github.com/maverick-lab/filebox/internal/thumbnail"
	"github.com/maverick-lab/filebox/internal/tracing"
	"github.com/maverick-lab/filebox/internal/worker"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting FileBox thumbnail worker...")

	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName+"-worker", cfg.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Initialize MySQL client
	log.Println("Connecting to MySQL...")
	dbClient, err := storage.NewMySQLClient(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to initialize MySQL client: %v", err)
	}
	defer dbClient.Close()
	log.Println("MySQL client initialized")

	// Initialize Redis client
	log.Println("Connecting to Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized")

	// Initialize blob storage
	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	thumbQueue := queue.NewRedisQueue(redisClient, cfg.QueueName)
	processor := thumbnail.NewProcessor(dbClient, blobs)
	pool := worker.NewPool(thumbQueue, processor, cfg.WorkerCount)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Worker started with %d workers on queue %q", cfg.WorkerCount, cfg.QueueName)
	pool.Run(ctx)

	log.Println("Worker exited")
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageBackend == config.BackendS3 {
		log.Println("Connecting to MinIO...")
		return storage.NewMinioStore(
			cfg.MinIOEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucketName,
			cfg.MinIOUseSSL,
		)
	}
	log.Printf("Using disk storage at %s", cfg.FolderPath)
	return storage.NewDiskStore(cfg.FolderPath)
}
