package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/review"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	tabRequests = "requests"
	tabApproved = "approved"
)

type adminView struct {
	Tab   string
	Board review.View
	// Notices for lists that failed to load; stale rows are still shown.
	PendingError   string
	ProcessedError string
}

func (h *Handler) board(c echo.Context) *review.Board {
	return h.boards.Get(currentSession(c).ID)
}

// Admin renders the review board. Lists are fetched on the first visit and
// on an explicit refresh; actions re-fetch what they change.
func (h *Handler) Admin(c echo.Context) error {
	h.enter(c, pageAdmin)
	b := h.board(c)
	tab := c.QueryParam("tab")
	if tab != tabApproved {
		tab = tabRequests
	}

	if !b.Loaded() || c.QueryParam("refresh") != "" {
		if _, err := loadErr(b.Load(c.Request().Context()), ""); err != nil {
			return err
		}
	}

	var err error
	view := adminView{Tab: tab, Board: b.View()}
	if view.PendingError, err = loadErr(view.Board.PendingErr, "Failed to fetch pending requests."); err != nil {
		return err
	}
	if view.ProcessedError, err = loadErr(view.Board.ProcessedErr, "Failed to fetch approved requests."); err != nil {
		return err
	}
	return h.render(c, http.StatusOK, pageAdmin, "Admin", view)
}

func requestID(c echo.Context) model.ID { return model.ID(c.Param("id")) }

func itemID(c echo.Context) model.ID { return model.ID(c.Param("itemId")) }

func adminPath(tab string, id model.ID) string {
	u := url.URL{Path: "/admin", RawQuery: url.Values{"tab": {tab}}.Encode()}
	if id != "" {
		u.Fragment = "request-" + id.String()
	}
	return u.String()
}

func (h *Handler) Expand(c echo.Context) error {
	id := requestID(c)
	to := adminPath(tabRequests, id)
	if err := h.board(c).Expand(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to load the request items.", to)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

func (h *Handler) Collapse(c echo.Context) error {
	id := requestID(c)
	b := h.board(c)
	if err := syncApproval(c, b, id); err != nil {
		return err
	}
	b.Collapse(id)
	return c.Redirect(http.StatusSeeOther, adminPath(tabRequests, id))
}

// ToggleApproval flips an item, or sets it when the form carries allow.
func (h *Handler) ToggleApproval(c echo.Context) error {
	return h.edit(c, func(b *review.Board, id model.ID) error {
		switch allow := c.FormValue("allow"); allow {
		case "":
			return b.Toggle(id, itemID(c))
		default:
			v, err := strconv.ParseBool(allow)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "allow must be true or false")
			}
			return b.SetApproval(id, itemID(c), v)
		}
	})
}

func (h *Handler) SetSerial(c echo.Context) error {
	return h.edit(c, func(b *review.Board, id model.ID) error {
		if v, ok := formValue(c, "serialNumber"); ok {
			return b.SetSerial(id, itemID(c), v)
		}
		return nil
	})
}

func (h *Handler) ApproveAll(c echo.Context) error {
	return h.edit(c, (*review.Board).ApproveAll)
}

func (h *Handler) RejectAll(c echo.Context) error {
	return h.edit(c, (*review.Board).RejectAll)
}

func (h *Handler) SetReturnDate(c echo.Context) error {
	return h.edit(c, func(*review.Board, model.ID) error { return nil })
}

// edit keeps what the admin typed in the request form, then applies fn.
func (h *Handler) edit(c echo.Context, fn func(b *review.Board, id model.ID) error) error {
	id := requestID(c)
	b := h.board(c)
	to := adminPath(tabRequests, id)
	if err := syncApproval(c, b, id); err != nil {
		return err
	}
	if err := fn(b, id); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return err
		}
		return h.fail(c, err, "Expand the request before changing its items.", to)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// syncApproval copies the return date and serial_<itemID> fields of a posted
// request form into the board's draft. Absent fields leave the draft as is.
func syncApproval(c echo.Context, b *review.Board, id model.ID) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if v, ok := form["returnDate"]; ok && len(v) > 0 {
		b.SetReturnDate(id, v[0])
	}
	for _, it := range b.Items(id) {
		if v, ok := form["serial_"+it.ID.String()]; ok && len(v) > 0 {
			_ = b.SetSerial(id, it.ID, v[0]) //nolint:errcheck
		}
	}
	return nil
}

func formValue(c echo.Context, key string) (string, bool) {
	form, err := c.FormParams()
	if err != nil {
		return "", false
	}
	v, ok := form[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Approve submits the admin's decision with whatever the form carries.
func (h *Handler) Approve(c echo.Context) error {
	id := requestID(c)
	b := h.board(c)
	if err := syncApproval(c, b, id); err != nil {
		return err
	}
	if err := b.Submit(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "There was an error approving the request.", adminPath(tabRequests, id))
	}
	h.publish(c, events.ActionRequestApproved, id.String())
	return h.done(c, "Request "+id.String()+" approved.", adminPath(tabRequests, ""))
}

func (h *Handler) MarkReturned(c echo.Context) error {
	id := requestID(c)
	to := adminPath(tabApproved, id)
	if err := h.board(c).MarkReturned(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to mark the request as returned.", to)
	}
	h.publish(c, events.ActionRequestReturned, id.String())
	return h.done(c, "Request "+id.String()+" marked as returned.", to)
}

func (h *Handler) SendReminders(c echo.Context) error {
	to := adminPath(tabApproved, "")
	msg, err := h.borrowSvc.SendReminder(c.Request().Context())
	if err != nil {
		return h.fail(c, err, "Failed to send reminders.", to)
	}
	h.publish(c, events.ActionRemindersSent, "")
	if msg == "" {
		msg = "Reminder emails sent."
	}
	return h.done(c, msg, to)
}
