package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"monitoring-gateway/internal/config"
	"monitoring-gateway/internal/gateway"
	"monitoring-gateway/internal/logger"
	"monitoring-gateway/internal/relay"
	"monitoring-gateway/internal/task"
	"monitoring-gateway/internal/upstream"
	"monitoring-gateway/internal/userdir"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"env", cfg.Env,
		"addr", cfg.HTTPServer.Address,
		"monitoring_url", cfg.Upstreams.MonitoringBaseURL,
		"identity_url", cfg.Upstreams.IdentityBaseURL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := userdir.Connect(ctx, cfg.UserDB.DSN)
	if err != nil {
		slog.Error("failed to connect to user db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	users := userdir.NewRepository(pool)
	usersHandler := userdir.NewHandler(users)

	client := upstream.NewClient(
		cfg.Upstreams.MonitoringBaseURL,
		cfg.Upstreams.IdentityBaseURL,
		cfg.Upstreams.Timeout,
	)
	gw := gateway.New(client, relay.New(client), task.NewLifecycle(client), users)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTPServer.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/goods", gw.ListGoods)

	r.Route("/markets", func(r chi.Router) {
		r.Get("/", gw.ListMarkets)
		r.Post("/create-market", gw.CreateMarket)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/create-task", gw.CreateTask)
		r.Get("/all", gw.ListTasks)
		r.Get("/{id}", gw.GetTask)
		r.Put("/{id}/status", gw.UpdateTaskStatus)
		r.Post("/{id}/start", gw.StartTask)
		r.Post("/{id}/complete", gw.CompleteTask)
		r.Put("/detail/update", gw.UpdateDetail)
		r.Put("/detail/{id}", gw.UpdateTaskDetailByID)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/sendcode", gw.SendCode)
		r.Post("/login", gw.Login)
		r.Post("/refresh", gw.Refresh)
		r.Get("/profile", gw.Profile)

		// local user-directory admin surface
		r.Get("/workers", usersHandler.ListWorkers)
		r.Put("/{id}/markets", usersHandler.AssignMarkets)
		r.Post("/make-admin", usersHandler.MakeAdmin)
	})

	r.Get("/files/{folder}/{id}", gw.DownloadFile)

	r.Put("/photos/taskDetail/update", gw.UploadPhotos)

	srv := &http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: r,
	}

	go func() {
		slog.Info("starting gateway http server", "addr", cfg.HTTPServer.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("gateway server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gateway server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("gateway shutdown error", "err", err)
	}
}
