package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/server/router"
)

const (
	HealthPath      = "/health"
	RequestIDHeader = "X-Request-ID"
)

// Server interface defines the common behavior for all servers
type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Router  *fiber.App
	metrics *MetricsServer
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	bodyLimit := cfg.Server.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1024 * 1024
	}
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}

	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             bodyLimit,
		ReadTimeout:           readTimeout,
		WriteTimeout:          readTimeout,
		IdleTimeout:           120 * time.Second,
	})
	r.Use(recover.New(), requestID)

	r.Server().NoDefaultServerHeader = true

	s := &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: r,
	}
	s.setupHealthCheck()
	return s
}

// requestID echoes the caller's request id or assigns a new one.
func requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals(RequestIDHeader, id)
	return c.Next()
}

func (s *BaseServer) setupHealthCheck() {
	s.Router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *BaseServer) WithRouters(routers ...router.ServerRouter) *BaseServer {
	for _, r := range routers {
		if err := r.BuildRoutes(s.Router); err != nil {
			s.Logger.WithError(err).Error("failed to build routes")
		}
	}
	return s
}

// StartMetrics serves /metrics on its own port in the background.
func (s *BaseServer) StartMetrics() {
	if s.metrics == nil {
		s.metrics = NewMetricsServer(s.Config, s.Logger)
	}
	s.metrics.Start()
}

func (s *BaseServer) Shutdown() error {
	if s.metrics != nil {
		if err := s.metrics.Shutdown(); err != nil {
			s.Logger.WithError(err).Warn("failed to stop metrics server")
		}
	}
	return s.Router.Shutdown()
}
