package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/config"
	handlers "github.com/smartcache/smartcache/pkg/handlers/http"
	"github.com/smartcache/smartcache/pkg/server/router"
)

type (
	GatewayServerDI struct {
		Config           *config.Config
		Logger           *logrus.Logger
		HandlerTransport handlers.HandlerTransport
	}
	GatewayServer struct {
		*BaseServer
	}
)

func NewGatewayServer(di GatewayServerDI) *GatewayServer {
	base := NewBaseServer(di.Config, di.Logger).
		WithRouters(router.NewGatewayRouter(di.HandlerTransport))
	return &GatewayServer{BaseServer: base}
}

func (s *GatewayServer) Run() error {
	s.StartMetrics()
	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting gateway server")
	return s.Router.Listen(addr)
}
