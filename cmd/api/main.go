package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/config"
	"github.com/akghosh/connect4/internal/engine"
	"github.com/akghosh/connect4/internal/repository/postgres"
	"github.com/akghosh/connect4/internal/repository/redicache"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/matchmaking"
	"github.com/akghosh/connect4/internal/service/session"
	transporthttp "github.com/akghosh/connect4/internal/transport/http"
	transportws "github.com/akghosh/connect4/internal/transport/websocket"
	"github.com/akghosh/connect4/pkg/auth"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := postgres.Open(cfg.DatabaseURL, postgres.Options{
		MaxOpenConns:    config.GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    config.GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: time.Duration(config.GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	cache := redicache.New(cfg.RedisAddr, cfg.RedisPassword)
	defer cache.Close()

	users := postgres.NewUserRepo(db)
	games := postgres.NewGameRepo(db)
	recorder := postgres.NewRecorder(users, games)

	bots := bot.NewService(engine.NewWithOptions(engine.Options{Timeout: cfg.SearchTimeout}))
	sessions := session.NewManager(bots, recorder, cfg.ReconnectTimeout)
	queue := matchmaking.NewQueue(cfg.MatchmakingTimeout)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)

	conns := transportws.NewConnectionManager()
	wsHandler := transportws.NewHandler(tokens, conns, queue, sessions, cfg.AllowedOrigins)

	stop := make(chan struct{})
	go wsHandler.RunMatchmaker(stop)
	sessions.StartJanitor(time.Minute, 10*time.Minute, stop)

	restHandler := transporthttp.NewHandler(users, games, cache, sessions, tokens, cfg.SessionTTL)
	oauthHandler := transporthttp.NewOAuthHandler(restHandler, config.LoadGoogleOAuth(), cfg.FrontendURL)
	router := transporthttp.NewRouter(restHandler, oauthHandler, cfg.AllowedOrigins, wsHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
