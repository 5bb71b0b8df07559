package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const MetricsPath = "/metrics"

// MetricsServer exposes the prometheus registry on the metrics port.
type MetricsServer struct {
	config *config.Config
	logger *logrus.Logger
	app    *fiber.App
	once   sync.Once
}

func NewMetricsServer(cfg *config.Config, logger *logrus.Logger) *MetricsServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Get(MetricsPath, MetricsHandler())
	return &MetricsServer{
		config: cfg,
		logger: logger,
		app:    app,
	}
}

// MetricsHandler serves the private prometheus registry.
func MetricsHandler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(prometheus.Registry(), promhttp.HandlerOpts{}),
	)
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// Start listens in the background. It is a no-op when metrics are disabled.
func (m *MetricsServer) Start() {
	if !m.config.Metrics.Enabled {
		m.logger.Info("prometheus metrics are disabled by configuration")
		return
	}
	m.once.Do(func() {
		go func() {
			addr := fmt.Sprintf(":%d", m.config.Server.MetricsPort)
			m.logger.WithField("addr", addr).Info("starting metrics server")
			if err := m.app.Listen(addr); err != nil {
				if !strings.Contains(err.Error(), "address already in use") {
					m.logger.WithError(err).Error("failed to start metrics server")
				}
			}
		}()
	})
}

func (m *MetricsServer) Shutdown() error {
	return m.app.Shutdown()
}
