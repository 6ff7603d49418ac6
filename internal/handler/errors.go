package handler

import (
	"fmt"
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const expiredPath = session.LoginPath + "?expired=true"

type errorPage struct {
	Code    int
	Message string
}

// httpErrorHandler is the single place a backend 401 ends up: the session is
// cleared and the browser goes back to the login page.
func (h *Handler) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, errs.ErrUnauthorized) {
		h.expire(c)
		if rerr := c.Redirect(http.StatusSeeOther, expiredPath); rerr != nil {
			h.log.Error("redirect to login", zap.Error(rerr))
		}
		return
	}

	code := http.StatusInternalServerError
	msg := errs.UserMessage(err, errs.ErrDefault.Error())
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrBackendUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = h.render(c, code, "error", "Error", errorPage{Code: code, Message: msg})
	}
	if err != nil {
		h.log.Error("render error page", zap.Error(err))
	}
}

func (h *Handler) expire(c echo.Context) {
	sess := currentSession(c)
	if sess == nil {
		c.SetCookie(session.ExpiredCookie(h.cfg.Session))
		return
	}
	h.publish(c, events.ActionSessionExpired, "")
	if err := h.sessions.Clear(c.Request().Context(), sess.ID); err != nil {
		h.log.Warn("clear session", zap.Error(err))
	}
	c.Set(sessionKey, nil)
	c.SetCookie(session.ExpiredCookie(h.cfg.Session))
}

// fail reports err as a flash notice and redirects. A 401 is returned instead
// so the error handler can end the session.
func (h *Handler) fail(c echo.Context, err error, fallback, to string) error {
	if errors.Is(err, errs.ErrUnauthorized) {
		return err
	}
	if !errs.IsValidation(err) {
		h.log.Warn("action failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	h.flash(c, flashError, errs.UserMessage(err, fallback))
	return c.Redirect(http.StatusSeeOther, to)
}

func (h *Handler) done(c echo.Context, msg, to string) error {
	h.flash(c, flashSuccess, msg)
	return c.Redirect(http.StatusSeeOther, to)
}

// loadErr turns a failed read into a notice for the page; a 401 is returned.
func loadErr(err error, fallback string) (string, error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, errs.ErrUnauthorized) {
		return "", err
	}
	return errs.UserMessage(err, fallback), nil
}
