package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"polyglot/internal/auth"
	"polyglot/internal/config"
	"polyglot/internal/domain/models"
	"polyglot/internal/domain/repositories"
	"polyglot/internal/formats"
	"polyglot/internal/handler"
	"polyglot/internal/middleware"
	"polyglot/internal/repository/file"
	"polyglot/internal/repository/postgres"
	"polyglot/internal/service/conversion"
	"polyglot/internal/service/llm"
	"polyglot/internal/service/settings"
)

// Version is overridden at build time with -ldflags "-X polyglot/internal/app.Version=..."
var Version = "dev"

// App holds the wired services shared by the HTTP server and the CLI
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Formats    *formats.Registry
	Providers  *llm.ProviderRegistry
	Settings   *settings.Service
	Conversion *conversion.Service
	Verifier   auth.TokenVerifier

	closers []func() error
}

// New wires every service from cfg. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	registry, err := formats.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load format catalog: %w", err)
	}
	a.Formats = registry
	logger.Info("format catalog loaded", "formats", len(registry.List()))

	providers, err := llm.SetupProviders(cfg.SharedHTTPClient(), logger)
	if err != nil {
		return nil, err
	}
	a.Providers = providers

	repo, err := a.settingsRepository(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Settings = settings.NewService(repo, models.ProviderConfig{
		Provider: models.ProviderKind(cfg.DefaultProvider),
		APIKey:   cfg.SeedAPIKey(),
		BaseURL:  cfg.DefaultBaseURL,
		Model:    cfg.DefaultModel,
	}, logger)

	a.Conversion = conversion.NewService(registry, providers, cfg.MaxInputChars, logger)

	if cfg.AuthJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, auth.VerifierOptions{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
		}, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create JWT verifier: %w", err)
		}
		a.Verifier = verifier
		a.closers = append(a.closers, verifier.Close)
	}

	return a, nil
}

// settingsRepository picks Postgres when DATABASE_URL is set, otherwise the YAML file
func (a *App) settingsRepository(ctx context.Context) (repositories.SettingsRepository, error) {
	cfg := a.Config
	if cfg.DatabaseURL == "" {
		a.Logger.Info("settings stored in file", "path", cfg.SettingsPath)
		return file.NewSettingsRepository(cfg.SettingsPath, a.Logger), nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, closePool(pool))

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, postgres.NewTransactionManager(pool, a.Logger), pool, tables); err != nil {
		return nil, err
	}

	a.Logger.Info("settings stored in database", "table", tables.ProviderSettings)
	return postgres.NewSettingsRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: a.Logger,
	}), nil
}

// Handler builds the HTTP router with its middleware chain
func (a *App) Handler() http.Handler {
	healthHandler := handler.NewHealthHandler(Version)
	formatsHandler := handler.NewFormatsHandler(a.Formats, a.Logger)
	settingsHandler := handler.NewSettingsHandler(a.Settings, a.Logger)
	convertHandler := handler.NewConvertHandler(a.Conversion, a.Settings, a.Formats, a.Logger)
	limiter := middleware.NewRateLimiter(a.Config.ConvertRatePerMinute, a.Logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	// Format catalog
	mux.HandleFunc("GET /api/formats", formatsHandler.ListFormats)
	mux.HandleFunc("GET /api/formats/{id}/sample", formatsHandler.GetSample)

	// Provider settings
	mux.HandleFunc("GET /api/settings", settingsHandler.GetSettings)
	mux.HandleFunc("PUT /api/settings", settingsHandler.UpdateSettings)

	// Conversion
	mux.HandleFunc("POST /api/convert", limiter.Wrap(convertHandler.Convert))
	mux.HandleFunc("POST /api/convert/file", limiter.Wrap(convertHandler.ConvertFile))

	// Order: CORS → RequestLogger → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(a.Verifier, a.Logger, "/health", "/api/formats")(h)
	h = middleware.Recovery(a.Logger, "/api/convert")(h)
	h = middleware.RequestLogger(a.Logger)(h)

	// CORS must wrap auth so OPTIONS preflights are answered
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(a.Config.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, handler.ConversionIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(h)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
