package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/cache"
	"github.com/truelectro/image-resampler/internal/config"
	"github.com/truelectro/image-resampler/internal/converter"
	"github.com/truelectro/image-resampler/internal/handlers"
	"github.com/truelectro/image-resampler/internal/repository"
	"github.com/truelectro/image-resampler/internal/router"
	"github.com/truelectro/image-resampler/internal/service"
	"github.com/truelectro/image-resampler/internal/store"
	"github.com/truelectro/image-resampler/internal/upscale"
)

type App struct {
	HTTPServer *http.Server
	logger     *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var statuses *cache.StatusCache
	if cfg.RedisAddr != "" {
		var err error
		statuses, err = cache.Connect(cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		logger.Info("Status cache connected", zap.String("addr", cfg.RedisAddr))
	}

	var history repository.Repository = repository.Noop{}
	if cfg.DatabaseURL != "" {
		repo, err := repository.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		history = repo
		logger.Info("Run history enabled")
	}

	var upscaler upscale.Upscaler
	if cfg.UpscalerURL != "" {
		upscaler = upscale.NewHTTP(cfg.UpscalerURL, logger)
		logger.Info("Upscaler enabled", zap.String("endpoint", cfg.UpscalerURL))
	}

	st := store.New(cfg.BatchTTL, logger)
	st.StartSweeper(ctx, cfg.SweepInterval)

	conv := converter.New(logger)
	svc := service.New(st, conv, upscaler, statuses, history, logger)

	h := handlers.NewBatchHandler(svc, cfg.MaxUploadMB, logger)
	r := router.New(h, logger)

	return &App{
		HTTPServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: r,
		},
		logger: logger,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("Server started", zap.String("address", a.HTTPServer.Addr))
	return a.HTTPServer.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.HTTPServer.Shutdown(ctx)
}
