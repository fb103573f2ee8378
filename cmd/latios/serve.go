package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/config"
	"github.com/tonyc-ship/latios-oss-sub001/internal/handlers"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/internal/tasks"
	"github.com/tonyc-ship/latios-oss-sub001/internal/views"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/cache"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/cookie"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/db"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/deepgram"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/health"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/llm"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer/resend"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/oauth"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/redis"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/storage"
)

const sentryFlushTimeout = 2 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

// deps are the long-lived clients built at startup.
type deps struct {
	log     *slog.Logger
	pool    *pgxpool.Pool
	rdb     *goredis.Client
	store   *store.Store
	catalog *i18n.Catalog
	itunes  itunes.Searcher
	jobs    *job.Manager
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.New(cfg.Log,
		middlewares.RequestIDExtractor(),
		middlewares.LocaleExtractor(),
		middlewares.UserIDExtractor(),
	)

	d, err := connect(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}

	localeCfg, err := cfg.Locale.Build()
	if err != nil {
		return err
	}

	guards := handlers.Guards{
		Required: middlewares.Auth(cfg.Auth, middlewares.WithAPIKeys(d.store)),
		Optional: middlewares.Auth(cfg.Auth, middlewares.WithAPIKeys(d.store), middlewares.OptionalAuth()),
	}
	var summarizer llm.Provider
	if cfg.LLM.Enabled() {
		if summarizer, err = llm.New(cfg.LLM, nil); err != nil {
			return fmt.Errorf("llm: %w", err)
		}
		log.Info("summarization enabled", "provider", summarizer.Name(), "model", summarizer.Model())
	} else {
		log.Info("summarization disabled: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}

	pages := handlers.NewPages(d.itunes, d.store, d.catalog, localeCfg)
	hs := []internal.Handler{
		pages,
		handlers.NewSearch(d.itunes, d.store, guards),
		handlers.NewKeys(d.store, guards),
		handlers.NewTranscribe(d.store, d.catalog, guards),
		handlers.NewSummaries(d.store, guards),
		handlers.NewSummarize(summarizer, d.store, guards, cfg.LLM.Timeout),
	}

	opts := []internal.Option{
		internal.WithLogger(log),
		internal.WithNotFoundHandler(pages.NotFound),
		internal.WithStaticFiles("/static/", views.Assets, "static"),
		internal.WithJobs(d.jobs),
	}

	if cfg.Cookie.Secret != "" {
		cookies, err := cookie.New(cfg.Cookie)
		if err != nil {
			return fmt.Errorf("cookies: %w", err)
		}
		opts = append(opts, internal.WithCookies(cookies))
	}
	if cfg.Notion.Enabled() {
		provider, err := oauth.NewNotionProvider(cfg.Notion)
		if err != nil {
			return fmt.Errorf("notion: %w", err)
		}
		hs = append(hs, handlers.NewNotion(provider, d.store, guards, cfg.BaseURL+"/"))
	} else {
		log.Info("notion integration disabled")
	}

	chain := []internal.Middleware{
		middlewares.RequestID(),
		middlewares.Recover(),
		middlewares.CORS(cfg.CORS),
		middlewares.Locale(localeCfg, middlewares.WithCatalog(d.catalog)),
		middlewares.RequestLogger(internal.LivenessPath, internal.ReadinessPath, middlewares.MetricsPath),
	}
	if cfg.MetricsEnabled {
		metrics := middlewares.NewHTTPMetrics(prometheus.DefaultRegisterer)
		chain = append(chain, metrics.Middleware())
		opts = append(opts, internal.WithHTTPHandler(middlewares.MetricsPath, metrics.Handler(prometheus.DefaultGatherer)))
	}
	chain = append(chain, middlewares.Timeout(cfg.RequestTimeout, handlers.SummarizePath))

	checks := map[string]health.CheckFunc{
		"postgres": db.Healthcheck(d.pool),
		"jobs":     d.jobs.Check,
	}
	shutdown := []internal.RunOption{internal.ShutdownHook(db.Shutdown(d.pool))}
	if d.rdb != nil {
		checks["redis"] = redis.Healthcheck(d.rdb)
		shutdown = append(shutdown, internal.ShutdownHook(redis.Shutdown(d.rdb)))
	}
	if cfg.Log.Sentry.DSN != "" {
		shutdown = append(shutdown, internal.ShutdownHook(func(context.Context) error {
			sentry.Flush(sentryFlushTimeout)
			return nil
		}))
	}

	opts = append(opts,
		internal.WithMiddleware(chain...),
		internal.WithHealth(health.New(checks, health.WithLogger(log))),
		internal.WithHandlers(hs...),
	)
	app := internal.New(opts...)

	log.Info("starting latios", "addr", cfg.Addr, "version", version, "locales", localeCfg.Supported())
	return app.Run(cfg.Addr, append([]internal.RunOption{
		internal.Logger(log),
		internal.ShutdownTimeout(cfg.ShutdownTimeout),
		internal.WithContext(ctx),
	}, shutdown...)...)
}

// connect opens the database, Redis and the outbound clients, and builds
// the job manager with every task registered.
func connect(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*deps, error) {
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := runMigrations(ctx, pool, cfg.DB.MigrationsTable, db.MigrateUp, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	d := &deps{log: log, pool: pool, store: store.New(pool)}

	d.catalog, err = views.NewCatalog(i18n.WithMissingKeyHandler(func(locale, ns, key string) {
		log.Warn("missing translation", "locale", locale, "namespace", ns, "key", key)
	}))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("translations: %w", err)
	}

	var results cache.Cache[[]itunes.Result]
	if cfg.Redis.Enabled() {
		d.rdb, err = redis.Open(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, err
		}
		results = cache.NewRedis[[]itunes.Result](d.rdb, cache.JSON[[]itunes.Result]{},
			cache.WithPrefix("latios:itunes:"), cache.WithDefaultTTL(cfg.ITunes.CacheTTL))
	} else {
		results = cache.NewMemory[[]itunes.Result](cfg.ITunes.CacheSize, cfg.ITunes.CacheTTL)
	}
	d.itunes = itunes.NewCached(itunes.New(cfg.ITunes), results, cfg.ITunes.CacheTTL, log)

	transcribe, err := newTranscribeTask(cfg, d, log)
	if err != nil {
		d.close()
		return nil, err
	}
	d.jobs, err = job.NewManager(pool,
		job.WithLogger(log),
		job.WithMaxWorkers(cfg.Jobs.MaxWorkers),
		job.WithTask[tasks.TranscribePayload](transcribe),
		job.WithScheduledTask(tasks.NewCleanup(d.store, cfg.HistoryRetention, log)),
	)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("jobs: %w", err)
	}
	return d, nil
}

func (d *deps) close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	d.pool.Close()
}

func newTranscribeTask(cfg *config.Config, d *deps, log *slog.Logger) (*tasks.Transcribe, error) {
	var transcriber tasks.Transcriber = unconfigured{}
	if cfg.Deepgram.Enabled() {
		dg, err := deepgram.New(cfg.Deepgram, nil)
		if err != nil {
			return nil, fmt.Errorf("deepgram: %w", err)
		}
		transcriber = dg
	} else {
		log.Warn("DEEPGRAM_API_KEY not set, transcription requests will fail")
	}

	opts := []tasks.TranscribeOption{tasks.WithLogger(log)}
	if cfg.S3.Enabled() {
		s3, err := storage.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		opts = append(opts, tasks.WithArchive(s3, s3.MaxDownloadSize()))
	}

	var sender mailer.Sender = mailer.LogSender{Logger: log}
	if cfg.Resend.Enabled() {
		sender = resend.New(cfg.Resend)
	}
	m := mailer.New(sender, mailer.NewRenderer(views.Emails()), cfg.Mailer)
	opts = append(opts, tasks.WithNotifier(m, cfg.BaseURL))

	return tasks.NewTranscribe(d.store, transcriber, d.catalog, opts...), nil
}

// unconfigured fails every transcription so the task row records why.
type unconfigured struct{}

func (unconfigured) TranscribeURL(context.Context, string, deepgram.Options) ([]deepgram.Segment, error) {
	return nil, deepgram.ErrNotConfigured
}
