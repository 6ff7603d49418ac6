package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Service struct {
	log *zap.Logger
	api *api.Client
}

func NewService(log *zap.Logger, client *api.Client) *Service {
	return &Service{
		log: log.Named("auth"),
		api: client,
	}
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	data, err := s.api.Do(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return model.LoginResponse{}, errors.Wrap(err, "auth.Login")
	}
	return model.DecodeLoginResponse(data)
}

func (s *Service) Signup(ctx context.Context, req model.SignupRequest) (model.SignupResponse, error) {
	req.Role = model.RoleStudent
	data, err := s.api.Do(ctx, http.MethodPost, "/api/auth/signup", req)
	if err != nil {
		return model.SignupResponse{}, errors.Wrap(err, "auth.Signup")
	}
	var resp model.SignupResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			s.log.Warn("signup response", zap.Error(err))
		}
	}
	return resp, nil
}

// Me is the whoami call used to validate a stored token.
func (s *Service) Me(ctx context.Context) (model.User, error) {
	data, err := s.api.Do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return model.User{}, errors.Wrap(err, "auth.Me")
	}
	return model.DecodeUser(data)
}
