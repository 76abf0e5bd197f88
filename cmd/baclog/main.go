package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	adapthttp "baclog/internal/adapter/http"
	"baclog/internal/adapter/memory"
	"baclog/internal/adapter/postgres"
	"baclog/internal/app"
	"baclog/internal/config"
	"baclog/internal/domain"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		profiles domain.ProfileRepository
		drinks   domain.DrinkRepository
		users    domain.UserRepository
		sessions domain.SessionRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db open")
		}
		defer func() { _ = db.Close() }()
		profiles, drinks, users = db, db, db
		sessions = postgres.NewSessionRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		profiles, drinks, users = db, db, db
		sessions = db.NewSessionRepo()
	}

	clock := domain.SystemClock{}
	engine := app.NewEngine(app.EngineConfig{
		MetabolismRatePerHour: cfg.BAC.MetabolismRatePerHour,
		Thresholds: domain.Thresholds{
			Caution: cfg.BAC.CautionLevel,
			Legal:   cfg.BAC.LegalLevel,
			High:    cfg.BAC.HighLevel,
		},
	})
	coords := app.NewRegistry(profiles, drinks, engine, clock, app.NewLogNotifier(log),
		app.CoordinatorConfig{Lookback: cfg.BAC.Lookback()}, cfg.BAC.RefreshInterval(), log)

	drinkSvc := app.NewDrinkService(drinks, coords, clock, app.DrinkConfig{
		EthanolDensityGramsPerMl: cfg.BAC.EthanolDensityGramsPerMl,
		GramsPerStandardDrink:    cfg.BAC.GramsPerStandardDrink,
	})
	profileSvc := app.NewProfileService(profiles, coords)
	authSvc := app.NewAuthService(users, sessions)

	var oidc *adapthttp.OIDC
	if cfg.OIDC.Enabled {
		oidc, err = adapthttp.NewOIDC(ctx, cfg.OIDC)
		if err != nil {
			log.Fatal().Err(err).Msg("oidc init")
		}
		log.Info().Str("issuer", cfg.OIDC.IssuerURL).Msg("sso enabled")
	}

	go coords.Run(ctx)
	go purgeSessions(ctx, authSvc, log)

	srv := adapthttp.New(drinkSvc, profileSvc, coords, authSvc, oidc, log)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// purgeSessions deletes expired sessions once an hour.
func purgeSessions(ctx context.Context, auth *app.AuthService, log zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Warn().Err(err).Msg("purge sessions")
			}
		}
	}
}
