package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type loginView struct {
	Email   string
	Error   string
	Expired bool
}

type signupView struct {
	Form  model.SignupRequest
	Error string
}

func (h *Handler) LoginPage(c echo.Context) error {
	if sess := currentSession(c); sess != nil {
		return c.Redirect(http.StatusSeeOther, sess.Home())
	}
	return h.render(c, http.StatusOK, "login", "Log in", loginView{
		Expired: c.QueryParam("expired") == "true",
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(req); err != nil {
		return h.render(c, http.StatusUnprocessableEntity, "login", "Log in", loginView{
			Email: req.Email,
			Error: validationMessage(err),
		})
	}

	sess, err := h.sessions.Login(c.Request().Context(), req)
	if err != nil {
		h.log.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		return h.render(c, failureStatus(err), "login", "Log in", loginView{
			Email: req.Email,
			Error: errs.UserMessage(err, "Login failed. Check your email and password."),
		})
	}

	c.SetCookie(session.NewCookie(sess, h.cfg.Session))
	c.Set(sessionKey, sess)
	h.publish(c, events.ActionLogin, "")
	return c.Redirect(http.StatusSeeOther, sess.Home())
}

func (h *Handler) SignupPage(c echo.Context) error {
	if sess := currentSession(c); sess != nil {
		return c.Redirect(http.StatusSeeOther, sess.Home())
	}
	return h.render(c, http.StatusOK, "signup", "Sign up", signupView{})
}

// Signup always registers a student; admins are provisioned by the backend.
func (h *Handler) Signup(c echo.Context) error {
	req := model.SignupRequest{
		Name:  strings.TrimSpace(c.FormValue("name")),
		Email: strings.TrimSpace(c.FormValue("email")),
		Major: strings.TrimSpace(c.FormValue("major")),
		Role:  model.RoleStudent,
	}
	req.YearGroup, _ = strconv.Atoi(strings.TrimSpace(c.FormValue("yearGroup")))
	req.Password = c.FormValue("password")

	view := signupView{Form: req}
	view.Form.Password = ""
	if err := c.Validate(req); err != nil {
		view.Error = validationMessage(err)
		return h.render(c, http.StatusUnprocessableEntity, "signup", "Sign up", view)
	}
	if req.Password != c.FormValue("confirmPassword") {
		view.Error = errs.ErrPasswordMismatch.Error()
		return h.render(c, http.StatusUnprocessableEntity, "signup", "Sign up", view)
	}

	resp, err := h.authSvc.Signup(c.Request().Context(), req)
	if err != nil {
		view.Error = errs.UserMessage(err, "Sign up failed. Please try again.")
		return h.render(c, failureStatus(err), "signup", "Sign up", view)
	}
	h.publish(c, events.ActionSignup, resp.UserID.String())

	msg := "Account created. You can log in now."
	if resp.Message != "" {
		msg = resp.Message
	}
	return h.done(c, msg, session.LoginPath)
}

func (h *Handler) Logout(c echo.Context) error {
	if sess := currentSession(c); sess != nil {
		h.publish(c, events.ActionLogout, "")
		if err := h.sessions.Clear(c.Request().Context(), sess.ID); err != nil {
			h.log.Warn("logout", zap.Error(err))
		}
	}
	c.SetCookie(session.ExpiredCookie(h.cfg.Session))
	return c.Redirect(http.StatusSeeOther, session.LoginPath)
}

// failureStatus picks the status for a page re-rendered after a failed call.
func failureStatus(err error) int {
	var apiErr *errs.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	case errors.Is(err, errs.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again."
	}
	fe := verrs[0]
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "email":
		return field + " must be a valid email address."
	case "min":
		return field + " must be at least " + fe.Param() + " characters."
	case "gte", "lte":
		return field + " is out of range."
	}
	return field + " is invalid."
}

func fieldLabel(name string) string {
	switch name {
	case "YearGroup":
		return "Year group"
	case "Email":
		return "Email"
	case "Password":
		return "Password"
	case "Name":
		return "Name"
	case "Major":
		return "Major"
	}
	return name
}
