package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutor_lms/internal/auth"
	"tutor_lms/internal/config"
	"tutor_lms/internal/http_server/handlers/admin"
	"tutor_lms/internal/http_server/handlers/identify"
	"tutor_lms/internal/http_server/handlers/login"
	"tutor_lms/internal/http_server/handlers/logout"
	"tutor_lms/internal/http_server/handlers/profile"
	"tutor_lms/internal/http_server/handlers/refresh"
	"tutor_lms/internal/http_server/handlers/register"
	"tutor_lms/internal/http_server/handlers/session"
	"tutor_lms/internal/http_server/handlers/stats"
	"tutor_lms/internal/http_server/handlers/verify"
	jwtlib "tutor_lms/internal/lib/jwt"
	"tutor_lms/internal/middleware/authn"
	rateLimit "tutor_lms/internal/middleware/ratelimit"
	"tutor_lms/internal/rabbitmq"
	"tutor_lms/internal/sessions"
	"tutor_lms/internal/storage/postgres"
	redisrepo "tutor_lms/internal/storage/redis"
	"tutor_lms/internal/users"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting tutor-lms backend", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	statsCache, err := redisrepo.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StatsTTL)
	if err != nil {
		log.Error("failed to connect redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer statsCache.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	tokens := jwtlib.NewManager(cfg.Tokens.Secret, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)

	authService := auth.New(log, storage, storage, tokens)
	userService := users.New(log, storage, storage, storage, statsCache)
	sessionService := sessions.New(log, storage, storage, storage, statsCache)

	router := setupRouter(log, cfg, tokens, authService, userService, sessionService, storage, msgBroker)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	tokens *jwtlib.Manager,
	authService *auth.Auth,
	userService *users.Service,
	sessionService *sessions.Service,
	questions admin.QuestionSaver,
	msgBroker *rabbitmq.RabbitMQClient,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "healthy", "service": "tutor-lms"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit.Register()).Post("/register",
				register.New(log, validate, authService, msgBroker,
					cfg.Tokens.VerificationTokenTTL, cfg.Tokens.VerificationTokenSecret,
					cfg.HTTPServer.BaseURL+"/api/v1"),
			)
			r.With(rateLimit.Login()).Post("/login",
				login.New(log, validate, authService),
			)
			r.With(rateLimit.Refresh()).Post("/refresh",
				refresh.New(log, validate, authService),
			)
			r.Post("/logout",
				logout.New(log, authService),
			)
			r.Get("/me",
				identify.New(log, authService),
			)
		})

		r.With(rateLimit.Verify()).Get("/verify",
			verify.New(log, userService, cfg.Tokens.VerificationTokenSecret),
		)

		r.Group(func(r chi.Router) {
			r.Use(authn.New(log, tokens))
			r.Use(rateLimit.API())

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", profile.Get(log, userService))
				r.Put("/me", profile.Update(log, validate, userService))
				r.Get("/me/stats", stats.New(log, userService))
				r.Get("/", admin.ListUsers(log, userService))
				r.Get("/counts", admin.UserCounts(log, userService))
			})

			r.Post("/questions", admin.CreateQuestion(log, validate, userService, questions))

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", session.Start(log, validate, sessionService))
				r.Get("/", session.List(log, sessionService))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", session.Get(log, sessionService))
					r.Post("/answers", session.SubmitAnswer(log, validate, sessionService))
					r.Get("/answers", session.ListAnswers(log, sessionService))
					r.Post("/pause", session.Pause(log, sessionService))
					r.Post("/resume", session.Resume(log, sessionService))
					r.Post("/complete", session.Complete(log, sessionService))
					r.Post("/abandon", session.Abandon(log, sessionService))
				})
			})
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
