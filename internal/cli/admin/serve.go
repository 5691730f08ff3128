package admin

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

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	openailib "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/tubenote-ai/tubenote/internal/api/handlers"
	"github.com/tubenote-ai/tubenote/internal/config"
	"github.com/tubenote-ai/tubenote/internal/database"
	"github.com/tubenote-ai/tubenote/internal/domain"
	"github.com/tubenote-ai/tubenote/internal/jobs"
	"github.com/tubenote-ai/tubenote/internal/openai"
	"github.com/tubenote-ai/tubenote/internal/repository"
	"github.com/tubenote-ai/tubenote/internal/server"
	"github.com/tubenote-ai/tubenote/internal/service"
	"github.com/tubenote-ai/tubenote/internal/sessionlock"
	"github.com/tubenote-ai/tubenote/internal/storage"
	"github.com/tubenote-ai/tubenote/internal/telemetry"
	"github.com/tubenote-ai/tubenote/internal/youtube"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the tubenote API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := cfg.SentryEnvironment
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPoolFromURL(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	videoRepo := repository.NewVideoRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	jobRepo := repository.NewVideoJobRepository(pool)

	var archive service.TranscriptArchiver
	if cfg.HasS3() {
		transcriptArchive, err := storage.NewTranscriptArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create transcript archive: %w", err)
		}
		if err := transcriptArchive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("transcript archive bucket '%s' ready", cfg.S3Bucket)
		archive = transcriptArchive
	}

	var embeddingClient service.EmbeddingClient
	var chatClient service.ChatCompleter
	var descriptionGen service.DescriptionGenerator
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: openailib.EmbeddingModel(cfg.EmbeddingModel),
		})
		chatClient = openai.NewChatClientWithConfig(openai.ChatConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.ChatModel,
		})
		descriptionGen = service.NewDescriptionService(chatClient)
	} else {
		log.Println("OPENAI_API_KEY not set: embedding and generation endpoints will report unavailable")
		embeddingClient = &noOpEmbeddingClient{}
		chatClient = &noOpChatCompleter{}
		descriptionGen = &noOpDescriptionGenerator{}
	}

	chunker := service.NewChunker(service.DefaultChunkConfig())
	videoSvc := service.NewVideoService(
		videoRepo, jobRepo, youtube.NewTranscriptClient(),
		chunker, embeddingClient, chunkRepo, descriptionGen, archive,
	)

	ragSvc := service.NewRAGService(embeddingClient, chunkRepo, chatClient)
	historySvc := service.NewHistoryService(chatClient)
	chatRAGSvc := service.NewChatRAGService(embeddingClient, chunkRepo, chatClient, historySvc)
	timestampSvc := service.NewTimestampService(embeddingClient, chunkRepo, chatClient)

	var locker service.SessionLocker
	if cfg.HasRedis() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer redisClient.Close()
		locker = sessionlock.NewRedisLocker(redisClient)
		log.Println("using redis session locks")
	} else {
		locker = sessionlock.NewLocalLocker()
		log.Println("using in-process session locks (single replica only)")
	}

	sessionChatSvc := service.NewSessionChatService(chatRAGSvc, sessionRepo, locker)

	processor := jobs.NewVideoWorker(jobRepo, videoSvc)
	worker := jobs.NewWorker(processor, cfg.WorkerPollInterval)
	go worker.Start(ctx)
	log.Println("video worker started")

	router := server.NewRouter(server.RouterConfig{
		VideoHandler:     handlers.NewVideoHandler(videoSvc),
		ChatHandler:      handlers.NewChatHandler(ragSvc, sessionChatSvc),
		TimestampHandler: handlers.NewTimestampHandler(timestampSvc),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpEmbeddingClient struct{}

func (c *noOpEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

type noOpChatCompleter struct{}

func (c *noOpChatCompleter) Complete(ctx context.Context, req openai.ChatRequest) (string, error) {
	return "", domain.ErrChatModelUnavailable
}

type noOpDescriptionGenerator struct{}

func (g *noOpDescriptionGenerator) Generate(ctx context.Context, transcriptText string) domain.VideoDescription {
	return domain.VideoDescription{Title: domain.DescriptionAPIError}
}

func runMigrations(databaseURL string) error {
	// golang-migrate drives a database/sql connection, not the pgx pool
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
