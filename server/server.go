package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AnnaCarter465/tax-advisor/auth"
	"github.com/AnnaCarter465/tax-advisor/config"
	"github.com/AnnaCarter465/tax-advisor/handler"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewAdvisor builds the echo server of the advisor: the form endpoints plus health and metrics.
func NewAdvisor(cfg config.ServerConfig, logger *zap.Logger, gatherer prometheus.Gatherer, h *handler.AdvisorHandler) *echo.Echo {
	e := newEcho(logger)

	registerAdvisorRoutes(e, h, gatherer, submitRateLimiter(cfg))

	return e
}

// NewCalc builds the echo server of the reference calculation service. The admin routes are
// mounted only when both admin and tokens are set.
func NewCalc(logger *zap.Logger, gatherer prometheus.Gatherer, calc *handler.CalcHandler, admin *handler.AdminHandler, tokens *auth.TokenManager) *echo.Echo {
	e := newEcho(logger)

	registerCalcRoutes(e, calc, gatherer)

	if admin != nil && tokens != nil {
		registerAdminRoutes(e, admin, auth.AdminMiddleware(tokens))
	}

	return e
}

func newEcho(logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	return e
}

// NewHTTPServer creates the net/http server with the configured timeouts.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run serves until ctx is done, then shuts down gracefully within shutdownTimeout.
func Run(ctx context.Context, e *echo.Echo, srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))

		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
				zap.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.Error(msg, fields...)
				return nil
			}

			logger.Info(msg, fields...)
			return nil
		},
	})
}

func submitRateLimiter(cfg config.ServerConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.SubmitRateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.SubmitRateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
