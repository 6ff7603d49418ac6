package handler

import (
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	pageDashboard = "dashboard"
	pageProfile   = "profile"
	pageBorrow    = "borrow"
	pageAdmin     = "admin"
	pageEquipment = "equipment"
	pageLogs      = "logs"
)

type dashboardView struct {
	Tab     string
	All     []model.BorrowRequest
	Pending []model.BorrowRequest
	Error   string
}

// enter drops the per-browser state of the pages the user has left.
func (h *Handler) enter(c echo.Context, page string) {
	id := currentSession(c).ID
	if page != pageAdmin {
		h.boards.Drop(id)
	}
	if page != pageBorrow {
		h.drafts.Drop(id)
	}
}

func (h *Handler) Dashboard(c echo.Context) error {
	if currentSession(c).IsAdmin() {
		return c.Redirect(http.StatusSeeOther, session.AdminHome)
	}
	h.enter(c, pageDashboard)

	view := dashboardView{Tab: "all"}
	if c.QueryParam("tab") == "pending" {
		view.Tab = "pending"
	}

	var (
		g               errgroup.Group
		allErr, pendErr error
	)
	ctx := c.Request().Context()
	g.Go(func() error {
		view.All, allErr = h.borrowSvc.All(ctx)
		return nil
	})
	g.Go(func() error {
		view.Pending, pendErr = h.borrowSvc.Pending(ctx)
		return nil
	})
	_ = g.Wait() //nolint:errcheck
	msg, err := loadErr(errs.First(allErr, pendErr), "Could not load your requests.")
	if err != nil {
		return err
	}
	view.Error = msg
	return h.render(c, http.StatusOK, pageDashboard, "Dashboard", view)
}

type profileView struct {
	User model.User
	Role model.Role
	Name string
}

// Profile re-validates the token against the whoami endpoint.
func (h *Handler) Profile(c echo.Context) error {
	h.enter(c, pageProfile)
	sess, err := h.sessions.Refresh(c.Request().Context(), currentSession(c))
	if err != nil {
		return err
	}
	c.Set(sessionKey, sess)
	return h.render(c, http.StatusOK, pageProfile, "Profile", profileView{
		User: sess.User,
		Role: sess.Role,
		Name: sess.DisplayName(),
	})
}
