// Package intake is the multi-stage client record vertical: section catalog,
// validation gates, completion math, persistence, and the HTTP surface.
package intake

import (
	"log/slog"

	"meridian/internal/intake/handler"
	"meridian/internal/intake/service"
	"meridian/internal/platform/middleware"
)

// Service exposes client record orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the intake service.
type Handler = handler.Handler

// NewService constructs the intake service with required dependencies.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs an HTTP handler for the client record routes.
func NewHandler(s *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return handler.New(s, logger, jwtValidator)
}
