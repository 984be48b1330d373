package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"member-service/internal/audit"
	"member-service/internal/authz"
	"member-service/internal/authz/presets"
	"member-service/internal/config"
	"member-service/internal/http"
	"member-service/internal/http/middleware"
	"member-service/internal/repository/postgres"
	"member-service/internal/storage/s3"
)

const (
	envFilePath      = ".env"
	serverAddrPrefix = ":"
	signalBufferSize = 1
	logOutputFlags   = log.LstdFlags | log.Lshortfile
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(logOutputFlags)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Configuration loaded successfully")

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Database connection established")

	// The registry compiles every descriptor and ownership path up
	// front; a bad declaration is fatal here, never a request error.
	registry := presets.MustRegistry()

	apiKeys, err := authz.LoadAPIKeyTable(cfg.Auth.APIKeysFile)
	if err != nil {
		log.Fatalf("Failed to load API key table: %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	recordStore := postgres.NewRecordStore(db, registry)

	s3Client, err := s3.NewClient(&cfg.AWS, cfg.App.PresignedURLExpiry)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	log.Println("S3 client initialized")

	resolver := authz.NewPrincipalResolver(sessionRepo, apiKeys, cfg.Auth.RootSecret, []byte(cfg.Auth.JWTSecret))
	catalog := authz.NewGrantCatalog(membershipRepo, apiKeys)
	engine := authz.NewEngine(catalog)
	owners := authz.NewOwnershipResolver(recordStore)
	annotator := authz.NewAnnotator(engine, owners)
	auditor := audit.NewLogger(db.Pool)

	serverDeps := &http.ServerDependencies{
		Config:        cfg,
		Registry:      registry,
		Engine:        engine,
		Owners:        owners,
		Annotator:     annotator,
		Records:       recordStore,
		UserRepo:      userRepo,
		SessionRepo:   sessionRepo,
		Objects:       s3Client,
		Auditor:       auditor,
		Authenticator: middleware.NewAuthenticator(resolver),
	}

	server := http.NewServer(serverDeps)

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.Start(serverAddrPrefix + cfg.Server.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
