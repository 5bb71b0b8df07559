package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/app/accesslog"
	"github.com/smartcache/smartcache/pkg/handlers/http/request"
)

const logRoute = "/log"

type logHandler struct {
	logger    *logrus.Logger
	forwarder accesslog.Forwarder
	now       func() time.Time
}

func NewLogHandler(logger *logrus.Logger, forwarder accesslog.Forwarder) Handler {
	return &logHandler{
		logger:    logger,
		forwarder: forwarder,
		now:       time.Now,
	}
}

// Handle validates an access event and waits until the broker acknowledges it.
func (h *logHandler) Handle(c *fiber.Ctx) error {
	var req request.LogRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to parse log request")
		return respond(c, logRoute, fiber.StatusBadRequest, fiber.Map{"error": ErrInvalidJsonPayload})
	}

	event, err := req.ToEvent(h.now())
	if err != nil {
		return respond(c, logRoute, fiber.StatusBadRequest, fiber.Map{"error": err.Error()})
	}

	if err := h.forwarder.Forward(c.Context(), accesslog.Entry{UserID: req.UserID, Event: event}); err != nil {
		return respond(c, logRoute, fiber.StatusInternalServerError, fiber.Map{"error": "failed to publish access event"})
	}

	return respond(c, logRoute, fiber.StatusOK, fiber.Map{"message": "access event published"})
}
