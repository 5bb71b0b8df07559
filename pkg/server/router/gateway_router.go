package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	handlers "github.com/smartcache/smartcache/pkg/handlers/http"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type gatewayRouter struct {
	handlerTransport handlers.HandlerTransport
}

func NewGatewayRouter(handlerTransport handlers.HandlerTransport) ServerRouter {
	return &gatewayRouter{
		handlerTransport: handlerTransport,
	}
}

func (r *gatewayRouter) BuildRoutes(router *fiber.App) error {
	t := r.handlerTransport
	if t.InitHandler == nil || t.LogHandler == nil || t.GetVersionHandler == nil {
		return ErrInvalidHandlerTransport
	}

	router.Get("/version", t.GetVersionHandler.Handle)
	router.Post("/init", t.InitHandler.Handle)
	router.Post("/log", t.LogHandler.Handle)
	return nil
}
