package handler

import (
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const sessionKey = "session"

// sessionMW loads the session behind the cookie and carries its bearer token
// in the request context for backend calls.
func (h *Handler) sessionMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}
		req := c.Request()
		sess, err := h.sessions.Init(req.Context(), cookie.Value)
		if err != nil {
			h.log.Warn("load session", zap.Error(err))
			return next(c)
		}
		if sess == nil {
			c.SetCookie(session.ExpiredCookie(h.cfg.Session))
			return next(c)
		}
		c.Set(sessionKey, sess)
		c.SetRequest(req.WithContext(api.WithToken(req.Context(), sess.Token)))
		return next(c)
	}
}

func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionKey).(*session.Session)
	return sess
}

func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentSession(c) == nil {
			return c.Redirect(http.StatusSeeOther, session.LoginPath)
		}
		return next(c)
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := currentSession(c)
		if !sess.IsAdmin() {
			return c.Redirect(http.StatusSeeOther, sess.Home())
		}
		return next(c)
	}
}

func requestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	log = log.Named("echo")
	return middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
}

func newRateLimiterMW(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}
