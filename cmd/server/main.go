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
	"github.com/mlucero/tienda-api/internal/app"
	"github.com/mlucero/tienda-api/internal/app/handlers"
	"github.com/mlucero/tienda-api/internal/auth/authmiddleware"
	"github.com/mlucero/tienda-api/internal/config"
	"github.com/mlucero/tienda-api/internal/lib/logger"
	"github.com/mlucero/tienda-api/internal/lib/logger/handlers/urllog"
	"github.com/mlucero/tienda-api/internal/service"
	"github.com/mlucero/tienda-api/internal/service/captcha"
	"github.com/mlucero/tienda-api/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	purchaseRepo := storage.NewPurchaseRepository(application.DB)

	// внешняя проверка captcha подключается только если включена в конфиге
	var verifier captcha.Verifier
	if cfg.Captcha.Enabled {
		verifier = captcha.NewClient(captcha.Config{
			VerifyURL: cfg.Captcha.VerifyURL,
			Secret:    cfg.Captcha.Secret,
		})
	}

	tokenTTL := time.Duration(application.Config.JWT.TokenTTL) * time.Minute
	authService := service.NewAuthService(application.Logger, userRepo, verifier, tokenTTL)
	saldoService := service.NewSaldoService(application.Logger, userRepo)
	purchaseService := service.NewPurchaseService(application.Logger, application.DB, userRepo, purchaseRepo)
	adminService := service.NewAdminService(application.Logger, userRepo)

	// liveness
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"tienda api is running"}`))
	})

	// публичные эндпоинты
	router.Post("/api/user/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/user/login", handlers.LoginHandler(application.Logger, authService))

	jwtMW := authmiddleware.NewJWTMiddleware()

	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		// эндпоинты баланса
		r.Get("/api/user/saldo", handlers.GetSaldoHandler(application.Logger, saldoService))
		r.Post("/api/user/saldo", handlers.AdjustSaldoHandler(application.Logger, saldoService))
		// эндпоинты покупок
		r.Post("/api/user/compras", handlers.CheckoutHandler(application.Logger, purchaseService))
		r.Get("/api/purchases", handlers.ListPurchasesHandler(application.Logger, purchaseService))
	})

	// админские эндпоинты, признак администратора проверяется на всей группе
	router.Group(func(r chi.Router) {
		r.Use(jwtMW)
		r.Use(authmiddleware.RequireAdmin)
		r.Put("/api/user/updateSaldo", handlers.OverrideSaldoHandler(application.Logger, adminService))
		r.Delete("/api/user", handlers.DeleteUserHandler(application.Logger, adminService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
