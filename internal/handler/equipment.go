package handler

import (
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/catalog"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/labstack/echo/v4"
)

const equipmentPath = "/equipment"

type equipmentView struct {
	Query      string
	Items      []model.Equipment
	Categories []string
	Total      int
	Error      string
	CanEdit    bool
}

func (h *Handler) Equipment(c echo.Context) error {
	h.enter(c, pageEquipment)
	view := equipmentView{
		Query:   c.QueryParam("q"),
		CanEdit: currentSession(c).IsAdmin(),
	}
	list, err := h.equipSvc.List(c.Request().Context())
	if view.Error, err = loadErr(err, "Failed to load equipment. Please try again."); err != nil {
		return err
	}
	view.Total = len(list)
	view.Categories = catalog.Categories(list)
	view.Items = catalog.Filter(list, view.Query)
	return h.render(c, http.StatusOK, pageEquipment, "Equipment", view)
}

func (h *Handler) CreateEquipment(c echo.Context) error {
	eq, err := h.equipSvc.Create(c.Request().Context(), c.FormValue("name"))
	if err != nil {
		return h.fail(c, err, "Failed to add equipment.", equipmentPath)
	}
	h.publish(c, events.ActionEquipmentCreated, eq.ID.String())
	return h.done(c, eq.Name+" added to the catalog.", equipmentPath)
}

func (h *Handler) RenameEquipment(c echo.Context) error {
	id := model.ID(c.Param("id"))
	eq, err := h.equipSvc.Update(c.Request().Context(), id, c.FormValue("name"))
	if err != nil {
		return h.fail(c, err, "Failed to update equipment.", equipmentPath)
	}
	h.publish(c, events.ActionEquipmentRenamed, id.String())
	return h.done(c, "Equipment renamed to "+eq.Name+".", equipmentPath)
}

func (h *Handler) DeleteEquipment(c echo.Context) error {
	id := model.ID(c.Param("id"))
	if err := h.equipSvc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to delete equipment.", equipmentPath)
	}
	h.publish(c, events.ActionEquipmentDeleted, id.String())
	return h.done(c, "Equipment deleted.", equipmentPath)
}
