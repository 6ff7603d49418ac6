package handler

import (
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/catalog"
	"github.com/Astemirdum/fabtrack/internal/composer"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const borrowPath = "/borrow"

type borrowRow struct {
	model.Equipment
	Selected bool
}

type borrowView struct {
	Query       string
	Equipment   []borrowRow
	Lines       []composer.Line
	Collection  string
	Submitting  bool
	Error       string
	MaxQuantity int
}

func (h *Handler) draft(c echo.Context) *composer.Draft {
	return h.drafts.Get(currentSession(c).ID)
}

func (h *Handler) BorrowPage(c echo.Context) error {
	h.enter(c, pageBorrow)
	d := h.draft(c)
	view := borrowView{
		Query:       c.QueryParam("q"),
		Lines:       d.Lines(),
		Collection:  d.Collection(),
		Submitting:  d.Submitting(),
		MaxQuantity: composer.MaxQuantity,
	}

	list, err := h.equipSvc.List(c.Request().Context())
	if view.Error, err = loadErr(err, "Failed to load equipment. Please try again."); err != nil {
		return err
	}
	for _, eq := range catalog.Filter(list, view.Query) {
		view.Equipment = append(view.Equipment, borrowRow{Equipment: eq, Selected: d.Selected(eq.ID)})
	}
	return h.render(c, http.StatusOK, pageBorrow, "Borrow equipment", view)
}

// ToggleItem adds or removes catalog equipment from the draft. The record is
// looked up in a fresh catalog listing.
func (h *Handler) ToggleItem(c echo.Context) error {
	id := model.ID(c.Param("id"))
	d := h.draft(c)
	if err := syncDraft(c, d); err != nil {
		return err
	}
	if d.Selected(id) {
		d.Remove(id)
		return c.Redirect(http.StatusSeeOther, borrowPath)
	}

	list, err := h.equipSvc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err, "Failed to load equipment. Please try again.", borrowPath)
	}
	eq, ok := catalog.Find(list, id)
	if !ok {
		return h.fail(c, errors.Wrapf(errNoEquipment, "id %s", id), "That equipment is no longer in the catalog.", borrowPath)
	}
	d.Toggle(eq)
	return c.Redirect(http.StatusSeeOther, borrowPath)
}

var errNoEquipment = errors.New("equipment not in catalog")

// UpdateItem saves the draft form. A bare quantity or description field
// applies to the line named in the path.
func (h *Handler) UpdateItem(c echo.Context) error {
	id := model.ID(c.Param("id"))
	d := h.draft(c)
	if err := syncDraft(c, d); err != nil {
		return err
	}
	if !d.Selected(id) {
		return h.fail(c, errors.Wrapf(errs.ErrNotFound, "draft line %s", id), "Select the item before changing it.", borrowPath)
	}
	if v, ok := formValue(c, "quantity"); ok {
		if err := d.SetQuantity(id, v); err != nil {
			return h.fail(c, err, "Select the item before changing it.", borrowPath)
		}
	}
	if v, ok := formValue(c, "description"); ok {
		if err := d.SetDescription(id, v); err != nil {
			return h.fail(c, err, "Select the item before changing it.", borrowPath)
		}
	}
	return c.Redirect(http.StatusSeeOther, borrowPath)
}

// syncDraft copies the quantity_<id>, description_<id> and collection fields
// of a posted draft form into the draft. Absent fields leave it as is.
func syncDraft(c echo.Context, d *composer.Draft) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, l := range d.Lines() {
		key := l.Equipment.ID.String()
		if v, ok := form["quantity_"+key]; ok && len(v) > 0 {
			_ = d.SetQuantity(l.Equipment.ID, v[0]) //nolint:errcheck
		}
		if v, ok := form["description_"+key]; ok && len(v) > 0 {
			_ = d.SetDescription(l.Equipment.ID, v[0]) //nolint:errcheck
		}
	}
	if v, ok := form["collectionDateTime"]; ok && len(v) > 0 {
		d.SetCollection(v[0])
	}
	return nil
}

// SubmitRequest sends the draft. The form carries the collection time and
// the current quantities so a single submit is enough.
func (h *Handler) SubmitRequest(c echo.Context) error {
	d := h.draft(c)
	if err := syncDraft(c, d); err != nil {
		return err
	}

	if err := d.Submit(c.Request().Context(), h.borrowSvc); err != nil {
		return h.fail(c, err, "There was an error submitting your request.", borrowPath)
	}
	h.publish(c, events.ActionRequestSubmitted, "")
	return h.done(c, "Your equipment request has been submitted.", session.StudentHome)
}
