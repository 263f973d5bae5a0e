package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpHandlers "github.com/todobot/core/internal/adapters/http"
	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// NewGateway creates the bot's messaging gateway server
func NewGateway(cfg *config.Config, sender ports.NotificationSender, appLogger *logger.Logger) *Server {
	e := newEcho(cfg, appLogger)
	log := appLogger.WithComponent("gateway")

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))

	srv := &Server{echo: e, config: cfg, logger: log}

	var guards []echo.MiddlewareFunc
	if cfg.Security.TokenAuthEnabled() {
		guards = append(guards, srv.authMiddleware(services.NewAuthService(cfg.Security)))
	}

	handler := httpHandlers.NewNotificationHandler(sender, appLogger)
	e.POST("/send_notification", handler.SendNotification, guards...)
	e.GET("/health", healthOK)

	return srv
}

// NewMetricsServer serves the registry of a process that has no API of its own
func NewMetricsServer(cfg *config.Config, registry *prometheus.Registry, appLogger *logger.Logger) *Server {
	e := newEcho(cfg, appLogger)

	e.Use(middleware.Recover())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	e.GET("/health", healthOK)

	return &Server{echo: e, config: cfg, logger: appLogger.WithComponent("metrics")}
}

func healthOK(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
