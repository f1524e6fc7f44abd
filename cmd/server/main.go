package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/maverick-lab/filebox/internal/auth"
	"github.com/maverick-lab/filebox/internal/config"
	"github.com/maverick-lab/filebox/internal/files"
	"github.com/maverick-lab/filebox/internal/handlers"
	"github.com/maverick-lab/filebox/internal/queue"
	"github.com/maverick-lab/filebox/internal/storage"
	"github.com/maverick-lab/filebox/internal/tracing"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	log.Println("Starting FileBox API server...")

	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Service: %s, Port: %s", cfg.ServiceName, cfg.ServicePort)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
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
	if err := dbClient.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("MySQL client initialized")

	// Initialize Redis client (sessions and thumbnail queue share it)
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

	sessionStore := storage.NewSessionStoreFromClient(redisClient)
	thumbQueue := queue.NewRedisQueue(redisClient, cfg.QueueName)

	// Initialize blob storage
	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// Initialize services
	digester, err := auth.NewDigester(cfg.PasswordDigest)
	if err != nil {
		log.Fatalf("Failed to initialize password digester: %v", err)
	}
	authService := auth.NewService(dbClient, sessionStore, digester)
	fileService := files.NewService(dbClient, blobs, thumbQueue)

	// Initialize handlers
	appHandler := handlers.NewAppHandler(sessionStore, dbClient, dbClient)
	usersHandler := handlers.NewUsersHandler(authService)
	authHandler := handlers.NewAuthHandler(authService)
	filesHandler := handlers.NewFilesHandler(authService, fileService)

	// Setup HTTP router
	router := mux.NewRouter()

	// Health check endpoint (no tracing needed)
	router.HandleFunc("/status", appHandler.Status).Methods("GET")
	router.HandleFunc("/stats", appHandler.Stats).Methods("GET")

	traced := func(name string, h http.HandlerFunc) http.Handler {
		return otelhttp.NewHandler(h, name)
	}

	router.Handle("/users", traced("POST /users", usersHandler.Create)).Methods("POST")
	router.Handle("/users/me", traced("GET /users/me", usersHandler.Me)).Methods("GET")
	router.Handle("/connect", traced("GET /connect", authHandler.Connect)).Methods("GET")
	router.Handle("/disconnect", traced("GET /disconnect", authHandler.Disconnect)).Methods("GET")

	router.Handle("/files", traced("POST /files", filesHandler.Upload)).Methods("POST")
	router.Handle("/files", traced("GET /files", filesHandler.Index)).Methods("GET")
	router.Handle("/files/{id}", traced("GET /files/{id}", filesHandler.Show)).Methods("GET")
	router.Handle("/files/{id}/publish", traced("PUT /files/{id}/publish", filesHandler.Publish)).Methods("PUT")
	router.Handle("/files/{id}/unpublish", traced("PUT /files/{id}/unpublish", filesHandler.Unpublish)).Methods("PUT")
	router.Handle("/files/{id}/data", traced("GET /files/{id}/data", filesHandler.Content)).Methods("GET")

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %s", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
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
