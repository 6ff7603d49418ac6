package session

import (
	"context"

	"github.com/Astemirdum/fabtrack/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Me(ctx context.Context) (model.User, error)
}
