package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/adapters/file"
	"github.com/aretw0/tick/internal/config"
	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/adapters/process"
	"github.com/aretw0/tick/pkg/adapters/redis"
	"github.com/aretw0/tick/pkg/adapters/sqlite"
	"github.com/aretw0/tick/pkg/adapters/webhook"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/persistence/middleware"
	"github.com/aretw0/tick/pkg/observability"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/aretw0/tick/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// AppOptions are the command line overrides applied on top of the configuration.
type AppOptions struct {
	// Debug logs at debug level and traces every action and handler.
	Debug bool
	// Metrics registers the engine metrics in a fresh registry.
	Metrics bool
	// TraceOutput receives the spans when tracing is enabled. Defaults to stderr.
	TraceOutput io.Writer
	// Extra options are passed to the engine last.
	Extra []tick.Option
}

// App is an engine wired from the configuration, with what has to be closed
// on shutdown.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *tick.Engine
	Store    ports.SessionStore
	Registry *prometheus.Registry

	closers []func(context.Context) error
}

// NewApp loads the story and builds its engine.
func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	logger, err := NewLogger(cfg, opts.Debug)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	story, err := LoadStory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, locker, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, closeStore)

	handlers, err := NewHandlers(cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	var hooks []domain.LifecycleHooks
	if opts.Metrics {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(app.Registry)
		hooks = append(hooks, metrics.Hooks())
		handlers = metrics.InstrumentHandlers(handlers)
	}
	if opts.Debug {
		hooks = append(hooks, createDebugHooks(logger))
	}

	engineOpts := []tick.Option{
		tick.WithLogger(logger),
		tick.WithHandlers(handlers),
		tick.WithStore(store),
		tick.WithLifecycleHooks(observability.ChainHooks(hooks...)),
		tick.WithEndingRule(cfg.EndingRule),
	}
	if locker != nil {
		engineOpts = append(engineOpts, tick.WithLocker(locker))
	}
	if cfg.Trace {
		w := opts.TraceOutput
		if w == nil {
			w = os.Stderr
		}
		tp, err := observability.NewStdoutProvider(w)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		app.closers = append(app.closers, tp.Shutdown)
		engineOpts = append(engineOpts, tick.WithTracer(tp.Tracer(observability.TracerName)))
	}
	engineOpts = append(engineOpts, opts.Extra...)

	app.Engine, err = tick.New(story, engineOpts...)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Info("engine ready", "story", story.ID, "store", cfg.Store.Backend)
	return app, nil
}

// Close releases the store and flushes the tracer, in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger creates the logger of the commands. Debug forces the debug level.
func NewLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(os.Stderr, level, cfg.LogFormat), nil
}

// LoadStory reads the story configuration. Stories may name a single file or
// a directory; in a directory the story id may be omitted when there is only one.
func LoadStory(ctx context.Context, cfg *config.Config) (domain.Configuration, error) {
	info, err := os.Stat(cfg.Stories)
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("failed to read stories: %w", err)
	}
	if !info.IsDir() {
		story, err := tick.ParseFile(cfg.Stories)
		if err != nil {
			return domain.Configuration{}, err
		}
		if cfg.Story != "" && cfg.Story != story.ID {
			return domain.Configuration{}, fmt.Errorf("%w: %q is not declared in %s", domain.ErrStoryNotFound, cfg.Story, cfg.Stories)
		}
		return story, nil
	}

	loader := file.NewLoader(cfg.Stories)
	id := cfg.Story
	if id == "" {
		ids, err := loader.List(ctx)
		if err != nil {
			return domain.Configuration{}, err
		}
		id, err = determineStory(ids)
		if err != nil {
			return domain.Configuration{}, err
		}
	}
	return loader.Load(ctx, id)
}

func determineStory(ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: the directory holds no story", domain.ErrStoryNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("several stories found (%s), pick one with --story", strings.Join(ids, ", "))
	}
}

// OpenStore opens the configured session store, masking and encrypting the
// sessions when configured. The locker is only set for redis with locking enabled.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, func(context.Context) error, error) {
	mws, err := storeMiddlewares(cfg.Store)
	if err != nil {
		return nil, nil, nil, err
	}
	store, locker, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, closeFn, nil
}

func storeMiddlewares(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		var err error
		if enc.ActiveKey, err = middleware.DecodeKey(cfg.EncryptionKey); err != nil {
			return nil, err
		}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nil, noop, nil
	case config.StoreFile:
		return file.New(cfg.Store.DSN), nil, noop, nil
	case config.StoreSQLite:
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = "tick.db"
		}
		store, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func(context.Context) error { return store.Close() }, nil
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		var locker ports.DistributedLocker
		if cfg.Redis.Lock {
			locker = redis.NewLocker(store.Client(), "tick:lock:")
		}
		return store, locker, func(context.Context) error { return store.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewHandlers builds the handler repository: the dev-tools registry, the
// local tools, then the webhook when one is configured.
func NewHandlers(cfg *config.Config) (ports.HandlerRepository, error) {
	reg, err := registry.NewRegistry(registry.DevTools())
	if err != nil {
		return nil, err
	}
	repos := []ports.HandlerRepository{reg}

	if cfg.Tools != "" {
		tools, err := process.LoadTools(cfg.Tools)
		if err != nil {
			return nil, err
		}
		repos = append(repos, process.NewRunner(process.WithTools(tools), process.WithBaseDir(filepath.Dir(cfg.Tools))))
	}
	if cfg.Webhook.URL == "" {
		if len(repos) == 1 {
			return reg, nil
		}
		return registry.NewComposite(repos...), nil
	}

	opts := []webhook.Option{}
	if cfg.Webhook.RateLimit > 0 {
		opts = append(opts, webhook.WithRateLimit(cfg.Webhook.RateLimit, cfg.Webhook.Burst))
	}
	if cfg.Webhook.Token != "" {
		opts = append(opts, webhook.WithHeader("Authorization", "Bearer "+cfg.Webhook.Token))
	}
	hook, err := webhook.New(cfg.Webhook.URL, opts...)
	if err != nil {
		return nil, err
	}
	return registry.NewComposite(append(repos, hook)...), nil
}
