package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const CookieName = "fabtrack_session"

// Manager owns the session lifecycle: Init on every request, Login, Refresh
// against the whoami endpoint and Clear on logout or a 401.
type Manager struct {
	log   *zap.Logger
	auth  Authenticator
	store Store
	now   func() time.Time

	mu      sync.RWMutex
	onClear []func(id string)
}

func NewManager(log *zap.Logger, auth Authenticator, store Store) *Manager {
	return &Manager{
		log:   log.Named("session"),
		auth:  auth,
		store: store,
		now:   time.Now,
	}
}

// OnClear registers a hook run after a session is cleared, used to drop the
// per-browser view state.
func (m *Manager) OnClear(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClear = append(m.onClear, fn)
}

// Init loads the session behind a cookie id. A missing or expired session is
// anonymous: nil without an error.
func (m *Manager) Init(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "session.Init")
	}
	return sess, nil
}

// Login exchanges credentials for a token. The role comes from the login
// response, then the token claims, then the whoami endpoint, then defaults to
// Student.
func (m *Manager) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	resp, err := m.auth.Login(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "session.Login")
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Token:     resp.Token,
		Role:      resp.Role,
		CreatedAt: m.now(),
	}
	if resp.User != nil {
		sess.User = *resp.User
	}
	if claimed, ok := claimsFromToken(resp.Token); ok {
		merge(&sess.User, claimed)
		if sess.Role == "" {
			sess.Role = claimed.Role
		}
	}
	if sess.Role == "" {
		me, err := m.auth.Me(api.WithToken(ctx, resp.Token))
		if err != nil {
			m.log.Warn("whoami after login", zap.Error(err))
		} else {
			merge(&sess.User, me)
			sess.Role = me.Role
		}
	}
	if sess.Role == "" {
		sess.Role = model.RoleStudent
	}
	sess.User.Role = sess.Role
	if sess.User.Email == "" {
		sess.User.Email = req.Email
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "session.Login save")
	}
	m.log.Info("login", zap.String("session", sess.ID), zap.String("role", string(sess.Role)))
	return sess, nil
}

// Refresh validates the token against the whoami endpoint and updates the
// identity. A 401 clears the session and is returned; other failures keep
// the decoded identity.
func (m *Manager) Refresh(ctx context.Context, sess *Session) (*Session, error) {
	me, err := m.auth.Me(api.WithToken(ctx, sess.Token))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			if cerr := m.Clear(ctx, sess.ID); cerr != nil {
				m.log.Warn("clear expired session", zap.Error(cerr))
			}
			return nil, errors.Wrap(err, "session.Refresh")
		}
		m.log.Warn("whoami", zap.String("session", sess.ID), zap.Error(err))
		return sess, nil
	}

	updated := *sess
	user := me
	merge(&user, sess.User)
	if me.Role != "" {
		updated.Role = me.Role
	}
	user.Role = updated.Role
	updated.User = user
	if err := m.store.Save(ctx, &updated); err != nil {
		return sess, errors.Wrap(err, "session.Refresh save")
	}
	return &updated, nil
}

func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := m.store.Delete(ctx, id)

	m.mu.RLock()
	hooks := m.onClear
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(id)
	}
	return errors.Wrap(err, "session.Clear")
}

// NewCookie binds a browser to sess.
func NewCookie(sess *Session, cfg config.Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func ExpiredCookie(cfg config.Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
