package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/composer"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/review"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/Astemirdum/fabtrack/pkg/validate"
	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Deps struct {
	Sessions  SessionManager
	Auth      AuthService
	Equipment EquipmentService
	Borrow    BorrowService
	Events    events.Publisher
}

type Handler struct {
	log       *zap.Logger
	cfg       config.Config
	sessions  SessionManager
	authSvc   AuthService
	equipSvc  EquipmentService
	borrowSvc BorrowService
	events    events.Publisher

	boards *session.Registry[*review.Board]
	drafts *session.Registry[*composer.Draft]
	now    func() time.Time
}

func New(log *zap.Logger, cfg config.Config, deps Deps) *Handler {
	h := &Handler{
		log:       log.Named("handler"),
		cfg:       cfg,
		sessions:  deps.Sessions,
		authSvc:   deps.Auth,
		equipSvc:  deps.Equipment,
		borrowSvc: deps.Borrow,
		events:    deps.Events,
		now:       time.Now,
	}
	if h.events == nil {
		h.events = events.Noop{}
	}
	h.boards = session.NewRegistry(cfg.Session.TTL, func() *review.Board {
		return review.NewBoard(h.borrowSvc, log)
	})
	h.drafts = session.NewRegistry(cfg.Session.TTL, composer.NewDraft)
	return h
}

// RunSweeper drops idle per-browser views until ctx is done.
func (h *Handler) RunSweeper(ctx context.Context, interval time.Duration) {
	go h.boards.Run(ctx, interval)
	h.drafts.Run(ctx, interval)
}

// DropViews discards the review board and request draft of a session.
func (h *Handler) DropViews(id string) {
	h.boards.Drop(id)
	h.drafts.Drop(id)
}

func (h *Handler) NewRouter() (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer
	e.Validator = validate.NewCustomValidator()
	e.HTTPErrorHandler = h.httpErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(h.log)))
	if h.cfg.Server.RPS > 0 {
		e.Use(newRateLimiterMW(rate.Limit(h.cfg.Server.RPS)))
	}
	if h.cfg.CSRF.Enable {
		e.Use(echo.WrapMiddleware(csrf.Protect(
			[]byte(h.cfg.CSRF.Key),
			csrf.Secure(h.cfg.Session.CookieSecure),
			csrf.Path("/"),
			csrf.FieldName(csrfField),
		)))
	}

	e.GET("/manage/health", h.Health)

	// Middleware is attached per route so unknown paths still end in a 404.
	var (
		web   = []echo.MiddlewareFunc{h.sessionMW}
		user  = []echo.MiddlewareFunc{h.sessionMW, requireAuth}
		admin = []echo.MiddlewareFunc{h.sessionMW, requireAuth, requireAdmin}
	)
	e.GET("/", h.Index, web...)
	e.GET("/login", h.LoginPage, web...)
	e.POST("/login", h.Login, web...)
	e.GET("/signup", h.SignupPage, web...)
	e.POST("/signup", h.Signup, web...)
	e.POST("/logout", h.Logout, web...)

	e.GET("/dashboard", h.Dashboard, user...)
	e.GET("/profile", h.Profile, user...)
	e.GET("/equipment", h.Equipment, user...)

	e.GET("/borrow", h.BorrowPage, user...)
	e.POST("/borrow/items/:id/toggle", h.ToggleItem, user...)
	e.POST("/borrow/items/:id", h.UpdateItem, user...)
	e.POST("/borrow/submit", h.SubmitRequest, user...)

	const req = "/admin/requests/:id"
	e.GET("/admin", h.Admin, admin...)
	e.POST(req+"/expand", h.Expand, admin...)
	e.POST(req+"/collapse", h.Collapse, admin...)
	e.POST(req+"/items/:itemId/toggle", h.ToggleApproval, admin...)
	e.POST(req+"/items/:itemId/serial", h.SetSerial, admin...)
	e.POST(req+"/approve-all", h.ApproveAll, admin...)
	e.POST(req+"/reject-all", h.RejectAll, admin...)
	e.POST(req+"/return-date", h.SetReturnDate, admin...)
	e.POST(req+"/approve", h.Approve, admin...)
	e.POST(req+"/return", h.MarkReturned, admin...)
	e.POST("/admin/reminders", h.SendReminders, admin...)

	e.POST("/equipment", h.CreateEquipment, admin...)
	e.POST("/equipment/:id", h.RenameEquipment, admin...)
	e.POST("/equipment/:id/delete", h.DeleteEquipment, admin...)

	e.GET("/logs", h.Logs, admin...)
	e.GET("/logs/download", h.DownloadLogs, admin...)

	return e, nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Index(c echo.Context) error {
	if sess := currentSession(c); sess != nil {
		return c.Redirect(http.StatusSeeOther, sess.Home())
	}
	return c.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (h *Handler) publish(c echo.Context, action events.Action, target string) {
	ev := events.Event{Action: action, Target: target}
	if sess := currentSession(c); sess != nil {
		ev.Email = sess.User.Email
		ev.Role = sess.Role
	}
	h.events.Publish(c.Request().Context(), ev)
}
