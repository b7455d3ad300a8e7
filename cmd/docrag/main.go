package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mindcask/docrag/internal/ai"
	"github.com/mindcask/docrag/internal/chunker"
	"github.com/mindcask/docrag/internal/config"
	"github.com/mindcask/docrag/internal/extract"
	"github.com/mindcask/docrag/internal/handler"
	"github.com/mindcask/docrag/internal/job"
	"github.com/mindcask/docrag/internal/middleware"
	"github.com/mindcask/docrag/internal/schedule"
	"github.com/mindcask/docrag/internal/service"
	"github.com/mindcask/docrag/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docrag",
		Short: "docrag retrieval-augmented QA server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docrag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("collection", cfg.VectorStore.Collection),
		zap.Int("dimension", cfg.VectorStore.Dimension),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.ProviderArgs())
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel, cfg.VectorStore.Dimension)
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)

	ingestService := service.NewIngestService(extract.NewPDF(), chunker.New(cfg.ChunkMaxChars), embedder, store)
	queryService := service.NewQueryService(embedder, generator, store, cfg.Query)
	scorer := service.NewAlignmentScorer(generator)

	deps := handler.RouterDeps{
		RAG:       handler.NewRAGHandler(ingestService, queryService, cfg.UploadDir),
		Alignment: handler.NewAlignmentHandler(scorer),
	}

	extra := []gin.HandlerFunc{
		middleware.CORS(cfg.CORSAllowOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitMS > 0 {
		extra = append(extra, middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond))
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extra...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewUploadCleanupJob(cfg.UploadDir, time.Hour), "*/10 * * * *"); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
