package handler

import (
	"context"
	"encoding/json"

	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/review"
	"github.com/Astemirdum/fabtrack/internal/service/auth"
	"github.com/Astemirdum/fabtrack/internal/service/borrow"
	"github.com/Astemirdum/fabtrack/internal/service/equipment"
	"github.com/Astemirdum/fabtrack/internal/session"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ SessionManager   = (*session.Manager)(nil)
	_ AuthService      = (*auth.Service)(nil)
	_ EquipmentService = (*equipment.Service)(nil)
	_ BorrowService    = (*borrow.Service)(nil)
	_ review.Backend   = (BorrowService)(nil)
)

type SessionManager interface {
	Init(ctx context.Context, id string) (*session.Session, error)
	Login(ctx context.Context, req model.LoginRequest) (*session.Session, error)
	Refresh(ctx context.Context, sess *session.Session) (*session.Session, error)
	Clear(ctx context.Context, id string) error
}

type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (model.SignupResponse, error)
}

type EquipmentService interface {
	List(ctx context.Context) ([]model.Equipment, error)
	Create(ctx context.Context, name string) (model.Equipment, error)
	Update(ctx context.Context, id model.ID, name string) (model.Equipment, error)
	Delete(ctx context.Context, id model.ID) error
}

type BorrowService interface {
	CreateRequest(ctx context.Context, req model.CreateBorrowRequest) error
	Pending(ctx context.Context) ([]model.BorrowRequest, error)
	All(ctx context.Context) ([]model.BorrowRequest, error)
	Items(ctx context.Context, requestID model.ID) ([]model.BorrowedItem, error)
	Approve(ctx context.Context, requestID model.ID, req model.ApproveRequest) error
	Return(ctx context.Context, requestID model.ID) error
	SendReminder(ctx context.Context) (string, error)
	Logs(ctx context.Context) (json.RawMessage, error)
}
