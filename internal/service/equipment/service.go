package equipment

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const endpoint = "/api/equipment"

type Service struct {
	log *zap.Logger
	api *api.Client
}

func NewService(log *zap.Logger, client *api.Client) *Service {
	return &Service{
		log: log.Named("equipment"),
		api: client,
	}
}

func (s *Service) List(ctx context.Context) ([]model.Equipment, error) {
	data, err := s.api.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "equipment.List")
	}
	list, err := model.DecodeEquipmentList(data)
	if err != nil {
		return nil, errors.Wrap(err, "equipment.List")
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, name string) (model.Equipment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Equipment{}, errs.ErrNameRequired
	}
	data, err := s.api.Do(ctx, http.MethodPost, endpoint, model.EquipmentRequest{Name: name})
	if err != nil {
		return model.Equipment{}, errors.Wrap(err, "equipment.Create")
	}
	return s.record(data, model.Equipment{Name: name}), nil
}

func (s *Service) Update(ctx context.Context, id model.ID, name string) (model.Equipment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Equipment{}, errs.ErrNameRequired
	}
	data, err := s.api.Do(ctx, http.MethodPut, endpoint+"/"+url.PathEscape(id.String()), model.EquipmentRequest{Name: name})
	if err != nil {
		return model.Equipment{}, errors.Wrap(err, "equipment.Update")
	}
	return s.record(data, model.Equipment{ID: id, Name: name}), nil
}

func (s *Service) Delete(ctx context.Context, id model.ID) error {
	if _, err := s.api.Do(ctx, http.MethodDelete, endpoint+"/"+url.PathEscape(id.String()), nil); err != nil {
		return errors.Wrap(err, "equipment.Delete")
	}
	return nil
}

// record decodes the echoed record. Some backend versions answer with a bare
// message instead; the caller re-fetches the list anyway, so that is not an error.
func (s *Service) record(data []byte, fallback model.Equipment) model.Equipment {
	if len(data) == 0 {
		return fallback
	}
	eq, err := model.DecodeEquipment(data)
	if err != nil {
		s.log.Debug("equipment response without record", zap.Error(err))
		return fallback
	}
	return eq
}
