package borrow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const endpoint = "/api/borrow"

type Service struct {
	log *zap.Logger
	api *api.Client
}

func NewService(log *zap.Logger, client *api.Client) *Service {
	return &Service{
		log: log.Named("borrow"),
		api: client,
	}
}

func (s *Service) CreateRequest(ctx context.Context, req model.CreateBorrowRequest) error {
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint+"/request", req); err != nil {
		return errors.Wrap(err, "borrow.CreateRequest")
	}
	return nil
}

func (s *Service) Pending(ctx context.Context) ([]model.BorrowRequest, error) {
	return s.list(ctx, endpoint+"/pending-requests")
}

func (s *Service) All(ctx context.Context) ([]model.BorrowRequest, error) {
	return s.list(ctx, endpoint+"/all-requests")
}

func (s *Service) list(ctx context.Context, path string) ([]model.BorrowRequest, error) {
	data, err := s.api.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	list, err := model.DecodeRequestList(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return list, nil
}

func (s *Service) Items(ctx context.Context, requestID model.ID) ([]model.BorrowedItem, error) {
	data, err := s.api.Do(ctx, http.MethodGet, endpoint+"/"+url.PathEscape(requestID.String())+"/items", nil)
	if err != nil {
		return nil, errors.Wrap(err, "borrow.Items")
	}
	items, err := model.DecodeItemList(data)
	if err != nil {
		return nil, errors.Wrap(err, "borrow.Items")
	}
	return items, nil
}

func (s *Service) Approve(ctx context.Context, requestID model.ID, req model.ApproveRequest) error {
	if _, err := s.api.Do(ctx, http.MethodPut, endpoint+"/approve/"+url.PathEscape(requestID.String()), req); err != nil {
		return errors.Wrap(err, "borrow.Approve")
	}
	return nil
}

func (s *Service) Return(ctx context.Context, requestID model.ID) error {
	if _, err := s.api.Do(ctx, http.MethodPut, endpoint+"/return/"+url.PathEscape(requestID.String()), nil); err != nil {
		return errors.Wrap(err, "borrow.Return")
	}
	return nil
}

// SendReminder asks the backend to email borrowers with overdue items.
// It returns the backend's confirmation text, if any.
func (s *Service) SendReminder(ctx context.Context) (string, error) {
	data, err := s.api.Do(ctx, http.MethodPost, endpoint+"/send-reminder", nil)
	if err != nil {
		return "", errors.Wrap(err, "borrow.SendReminder")
	}
	var resp errs.ErrorResponse
	if len(data) > 0 {
		_ = json.Unmarshal(data, &resp) //nolint:errcheck
	}
	return resp.Text(), nil
}

// Logs returns the audit log payload as-is; its shape is owned by the backend.
func (s *Service) Logs(ctx context.Context) (json.RawMessage, error) {
	data, err := s.api.Do(ctx, http.MethodGet, endpoint+"/logs", nil)
	if err != nil {
		return nil, errors.Wrap(err, "borrow.Logs")
	}
	if len(data) > 0 && !json.Valid(data) {
		return nil, errors.Wrap(errs.ErrUnexpectedPayload, "borrow.Logs")
	}
	return data, nil
}
