package jwttoken

import (
	"meridian/internal/platform/middleware"
)

// ServiceAdapter bridges the token service to the middleware validator
// interface so the middleware package does not import jwt internals.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		ConsultantID: claims.ConsultantID,
		SessionID:    claims.SessionID,
	}, nil
}
