package main

import (
	"context"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/MedAli03/atpsm-messaging/internal/config"
	confighandler "github.com/MedAli03/atpsm-messaging/internal/config/handler"
	mwLogger "github.com/MedAli03/atpsm-messaging/internal/http-server/middleware/logger"
	"github.com/MedAli03/atpsm-messaging/internal/identity"
	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/handlers/slogpretty"
	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/sl"
	messageshandler "github.com/MedAli03/atpsm-messaging/internal/messages/handler"
	messagesrepo "github.com/MedAli03/atpsm-messaging/internal/messages/repo"
	"github.com/MedAli03/atpsm-messaging/internal/notify"
	"github.com/MedAli03/atpsm-messaging/internal/storage/postgres"
	threadshandler "github.com/MedAli03/atpsm-messaging/internal/threads/handler"
	threadsrepo "github.com/MedAli03/atpsm-messaging/internal/threads/repo"
	"github.com/MedAli03/atpsm-messaging/internal/typing"
	typinghandler "github.com/MedAli03/atpsm-messaging/internal/typing/handler"
	uploadshandler "github.com/MedAli03/atpsm-messaging/internal/uploads/handler"
	uploadsrepo "github.com/MedAli03/atpsm-messaging/internal/uploads/repo"
	uploadsservice "github.com/MedAli03/atpsm-messaging/internal/uploads/service"
	usersrepo "github.com/MedAli03/atpsm-messaging/internal/users/repo"
	wshandler "github.com/MedAli03/atpsm-messaging/internal/ws/handler"
	"github.com/MedAli03/atpsm-messaging/internal/ws/hub"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	if err := godotenv.Load("infra/.env"); err != nil {
		stdlog.Println("No .env file found, skipping...")
	}

	cfg := appconfig.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting atpsm-messaging", slog.String("env", cfg.Env))

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	h := hub.NewHub()
	go h.Run()

	notifier := notify.NewHubNotifier(h, log)

	var presence typing.Presence
	if cfg.Typing.RedisURL != "" {
		presence, err = typing.NewRedisPresence(ctx, cfg.Typing.RedisURL, cfg.Typing.TTL)
		if err != nil {
			log.Error("failed to init redis presence", sl.Err(err))
			os.Exit(1)
		}
		log.Info("typing presence backed by redis")
	} else {
		presence = typing.NewCache(cfg.Typing.TTL)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Uploads.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Uploads.AccessKey, cfg.Uploads.SecretKey, ""),
		),
	)
	if err != nil {
		log.Error("failed to load aws config", sl.Err(err))
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Uploads.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Uploads.Endpoint)
			o.UsePathStyle = true
		}
	})
	presigner := s3.NewPresignClient(s3Client)

	usersRepo := usersrepo.New(db)
	messagesRepo := messagesrepo.New(db, cfg.Messages.PageSize)
	threadsRepo := threadsrepo.New(db, usersRepo)
	uploadsRepo := uploadsrepo.New(db)
	uploadsService := uploadsservice.New(
		cfg.Uploads.Bucket, cfg.Uploads.MaxSize, cfg.Uploads.PresignExpiry,
		presigner, s3Client, uploadsRepo,
	)

	mh := messageshandler.New(messagesRepo, notifier, cfg.Messages, log)
	th := threadshandler.New(threadsRepo, notifier, log)
	tph := typinghandler.New(presence, notifier, log)
	uh := uploadshandler.New(uploadsService, log)
	ch := confighandler.New(*cfg, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// Dev identity shim: the real deployment sits behind the association's
	// auth service, which sets the same cookie.
	router.Post("/signin", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("user_id")
		if raw == "" {
			http.Error(w, "missing user_id", http.StatusBadRequest)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:  "user_id",
			Value: raw,
			Path:  "/",
		})

		w.WriteHeader(http.StatusOK)
	})

	router.Get("/config", ch.GetConfig())
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(identity.WithUser)

		r.Get("/ws", wshandler.WSHandler(h, log))

		r.Get("/threads", th.GetThreads())
		r.Post("/threads", th.CreateThread())
		r.Get("/threads/{threadId}", th.GetThread())
		r.Patch("/threads/{threadId}/archive", th.SetArchived())
		r.Post("/threads/{threadId}/participants", th.AddParticipants())
		r.Delete("/threads/{threadId}/participants/{userId}", th.RemoveParticipant())

		r.Get("/threads/{threadId}/messages", mh.GetMessages())
		r.Post("/threads/{threadId}/messages", mh.SendMessage())
		r.Post("/threads/{threadId}/read", mh.MarkRead())

		r.Put("/threads/{threadId}/typing", tph.SetTyping())
		r.Get("/threads/{threadId}/typing", tph.GetTyping())

		r.Post("/uploads/presign-upload", uh.PresignUpload())
		r.Post("/uploads/presign-download", uh.PresignDownload())
		r.Post("/uploads/confirm", uh.ConfirmUpload())
	})

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}

	log.Error("server stopped")
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
