package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/ebookdealworker/config"
	"sjsage522/ebookdealworker/helpers"
	"sjsage522/ebookdealworker/internal"
	"sjsage522/ebookdealworker/internal/crawler"
	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/logger"
	"sjsage522/ebookdealworker/pkg/web"
	"sjsage522/ebookdealworker/services/cache"
	"sjsage522/ebookdealworker/services/metrics"
	"sjsage522/ebookdealworker/services/publisher"
	"sjsage522/ebookdealworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ebookdealworker",
		Short:        "Collects promotion listings from Taiwanese e-book platforms",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newRenderCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		once        bool
		sourcesFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every platform, save deals.json and render the listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if sourcesFile != "" {
				cfg.SourcesFile = sourcesFile
			}
			if once {
				cfg.CrawlInterval = 0
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass regardless of CRAWL_INTERVAL_SECONDS")
	cmd.Flags().StringVar(&sourcesFile, "sources", "", "YAML file with the platform list")
	return cmd
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Re-render the listing from the saved deals.json without fetching",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			s, err := snapshot.NewFileStore(cfg.DataPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", cfg.DataPath, err)
			}
			if err := web.NewRenderer(cfg.HTMLPath, cfg.MarkdownPath).Render(s); err != nil {
				return err
			}
			logger.LogInfo("render", "Rendered %d platforms to %s", len(s.Items), cfg.HTMLPath)
			return nil
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.ForWorker()

	if err := cfg.LoadSources(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("sources", len(cfg.Sources)).
		Msg("Starting application")

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	fetcher := helpers.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent)
	crawlers, err := crawler.CreateCrawlers(cfg, fetcher, services.Cache)
	if err != nil {
		return err
	}
	if len(crawlers) == 0 {
		return fmt.Errorf("no crawlers were created")
	}

	w := worker.NewWorker(ctx, crawlers, services.Dependencies, helpers.NewLogger(cfg.ErrorLogPath), cfg.CrawlInterval)
	if err := w.Start(); err != nil {
		logger.LogError("worker", err, "Worker exited with error")
		return err
	}

	log.Info().Msg("Shutting down gracefully...")
	return nil
}

// Services holds all the initialized services
type Services struct {
	internal.Dependencies
	redis *publisher.RedisPublisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.redis != nil {
		s.redis.Close()
	}
}

// initializeServices wires the optional backends. An unreachable memcache or
// redis falls back to in-process caching and no publishing.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{
		Dependencies: internal.Dependencies{
			Store:    snapshot.NewFileStore(cfg.DataPath),
			Renderer: web.NewRenderer(cfg.HTMLPath, cfg.MarkdownPath),
			Metrics:  metrics.NewRecorder(cfg.MetricsFile),
		},
	}

	services.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.FetchTimeout)
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, using in-memory cache: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		rp := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := rp.Ping(); err != nil {
			logger.Warn("Redis at %s unavailable, publishing disabled: %v", cfg.RedisAddr, err)
			rp.Close()
		} else {
			services.redis = rp
			services.Publisher = rp
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}
