package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/veritasai/veritas-claims/internal/application"
	appclaims "github.com/veritasai/veritas-claims/internal/application/claims"
	appdocs "github.com/veritasai/veritas-claims/internal/application/documents"
	appinvestigate "github.com/veritasai/veritas-claims/internal/application/investigate"
	"github.com/veritasai/veritas-claims/internal/application/evidence"
	"github.com/veritasai/veritas-claims/internal/config"
	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	claimsdomain "github.com/veritasai/veritas-claims/internal/domain/claims"
	"github.com/veritasai/veritas-claims/internal/domain/claimerrors"
	"github.com/veritasai/veritas-claims/internal/domain/conversations"
	docsdomain "github.com/veritasai/veritas-claims/internal/domain/documents"
	aiclient "github.com/veritasai/veritas-claims/internal/infra/ai/openai"
	"github.com/veritasai/veritas-claims/internal/infra/ai/prompt"
	mysqlp "github.com/veritasai/veritas-claims/internal/infra/db/mysql"
	postgresp "github.com/veritasai/veritas-claims/internal/infra/db/postgres"
	"github.com/veritasai/veritas-claims/internal/infra/exif"
	"github.com/veritasai/veritas-claims/internal/infra/httpserver"
	minioStore "github.com/veritasai/veritas-claims/internal/infra/storage"
	"github.com/veritasai/veritas-claims/internal/infra/vision"
	"github.com/veritasai/veritas-claims/internal/infra/websearch"
	"github.com/veritasai/veritas-claims/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	var (
		db          *sql.DB
		claimRepo   claimsdomain.Repository
		docRepo     docsdomain.Repository
		errorsRepo  claimerrors.Repository
		sessionRepo conversations.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		claimRepo = postgresp.NewClaimRepository(db)
		docRepo = postgresp.NewDocumentRepository(db)
		sessionRepo = conversations.NewMemoryRepository()
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		claimRepo = mysqlp.NewClaimRepository(db)
		docRepo = mysqlp.NewDocumentRepository(db)
		errorsRepo = mysqlp.NewAnalysisErrorRepository(db)
		sessionRepo = mysqlp.NewConversationRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init vision backend
	visionClient := vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey)
	if cfg.Vision.PollInterval > 0 {
		visionClient.PollInterval = cfg.Vision.PollInterval
	}
	if cfg.Vision.MaxPollAttempts > 0 {
		visionClient.MaxPollAttempts = cfg.Vision.MaxPollAttempts
	}
	var videoAnalyzer analysis.VideoAnalyzer
	if cfg.Vision.EnableVideoJobs {
		videoAnalyzer = visionClient
	}

	extractor := &evidence.Extractor{
		Text:      visionClient,
		Forensics: visionClient,
		Video:     videoAnalyzer,
		Search:    websearch.NewClient(cfg.Search.APIKey, cfg.Search.EngineID),
		Meta:      exif.NewReader(),
		Store:     store,
	}

	tracker := &appdocs.Tracker{
		Repo:  docRepo,
		Clock: application.SystemClock{},
	}

	// init services
	claimsSvc := &appclaims.Service{
		Repo:        claimRepo,
		Tracker:     tracker,
		Extractor:   extractor,
		Errors:      errorsRepo,
		Store:       store,
		Model:       aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model),
		Prompt:      prompt.Render,
		Clock:       application.SystemClock{},
		MaxParallel: cfg.Analysis.MaxParallel,
	}
	investigateSvc := &appinvestigate.Service{
		Claims: claimRepo,
		Store:  store,
		Conv:   aiclient.NewConversation(cfg.AI.APIKey, cfg.AI.ConversationModel, sessionRepo),
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	mux.Use(middleware.RateLimitMiddleware(60, 1))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage": middleware.HealthCheckFunc(func(ctx context.Context) error {
			_, err := store.List(ctx, "claims_context/")
			return err
		}),
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(claimsSvc, investigateSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
