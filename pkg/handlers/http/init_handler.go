package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/app/credentials"
	"github.com/smartcache/smartcache/pkg/handlers/http/request"
	"github.com/smartcache/smartcache/pkg/infra/prometheus"
)

const initRoute = "/init"

type initHandler struct {
	logger *logrus.Logger
	store  credentials.Store
}

func NewInitHandler(logger *logrus.Logger, store credentials.Store) Handler {
	return &initHandler{
		logger: logger,
		store:  store,
	}
}

// Handle stores the redis credentials of a user.
func (h *initHandler) Handle(c *fiber.Ctx) error {
	var req request.InitRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to parse init request")
		return respond(c, initRoute, fiber.StatusBadRequest, fiber.Map{"error": ErrInvalidJsonPayload})
	}
	if err := req.Validate(); err != nil {
		return respond(c, initRoute, fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}

	err := h.store.Save(c.Context(), credentials.Credentials{
		UserID:   req.UserID,
		Host:     req.RedisHost,
		Port:     req.RedisPort,
		Password: req.RedisPassword,
	})
	if err != nil {
		return respond(c, initRoute, fiber.StatusInternalServerError, fiber.Map{"error": "failed to store redis credentials"})
	}

	return respond(c, initRoute, fiber.StatusOK, fiber.Map{
		"message": "redis credentials stored for user: " + req.UserID,
	})
}

func respond(c *fiber.Ctx, route string, status int, body fiber.Map) error {
	prometheus.GatewayRequestTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	return c.Status(status).JSON(body)
}
