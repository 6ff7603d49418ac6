package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/Astemirdum/fabtrack/internal/session"
	mock_session "github.com/Astemirdum/fabtrack/internal/session/mocks"
	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func newManager(auth session.Authenticator) (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore(time.Hour)
	return session.NewManager(zap.NewNop(), auth, store), store
}

var creds = model.LoginRequest{Email: "a@ashesi.edu.gh", Password: "pw123456"}

func TestManager_Login(t *testing.T) {
	t.Parallel()
	type mockBehavior func(t *testing.T, m *mock_session.MockAuthenticator)

	tests := []struct {
		name     string
		behavior mockBehavior
		wantRole model.Role
		wantHome string
		wantName string
	}{
		{
			name: "role claim Admin",
			behavior: func(t *testing.T, m *mock_session.MockAuthenticator) {
				m.EXPECT().Login(gomock.Any(), creds).
					Return(model.LoginResponse{Token: token(t, jwt.MapClaims{"role": "Admin", "email": "a@ashesi.edu.gh"})}, nil)
			},
			wantRole: model.RoleAdmin,
			wantHome: "/admin",
			wantName: "a",
		},
		{
			name: "role claim Student",
			behavior: func(t *testing.T, m *mock_session.MockAuthenticator) {
				m.EXPECT().Login(gomock.Any(), creds).
					Return(model.LoginResponse{Token: token(t, jwt.MapClaims{"Role": "student", "name": "Ama Mensah"})}, nil)
			},
			wantRole: model.RoleStudent,
			wantHome: "/dashboard",
			wantName: "Ama Mensah",
		},
		{
			name: "role in response wins over claim",
			behavior: func(t *testing.T, m *mock_session.MockAuthenticator) {
				m.EXPECT().Login(gomock.Any(), creds).
					Return(model.LoginResponse{
						Token: token(t, jwt.MapClaims{"role": "Student"}),
						Role:  model.RoleAdmin,
						User:  &model.User{ID: "7", Name: "Kofi"},
					}, nil)
			},
			wantRole: model.RoleAdmin,
			wantHome: "/admin",
			wantName: "Kofi",
		},
		{
			name: "opaque token falls back to whoami",
			behavior: func(t *testing.T, m *mock_session.MockAuthenticator) {
				m.EXPECT().Login(gomock.Any(), creds).Return(model.LoginResponse{Token: "t1"}, nil)
				m.EXPECT().Me(gomock.Any()).DoAndReturn(func(ctx context.Context) (model.User, error) {
					require.Equal(t, "t1", api.TokenFrom(ctx))
					return model.User{ID: "3", Name: "Esi", Role: model.RoleAdmin}, nil
				})
			},
			wantRole: model.RoleAdmin,
			wantHome: "/admin",
			wantName: "Esi",
		},
		{
			name: "whoami failure defaults to Student",
			behavior: func(t *testing.T, m *mock_session.MockAuthenticator) {
				m.EXPECT().Login(gomock.Any(), creds).Return(model.LoginResponse{Token: "t1"}, nil)
				m.EXPECT().Me(gomock.Any()).Return(model.User{}, errs.ErrBackendUnavailable)
			},
			wantRole: model.RoleStudent,
			wantHome: "/dashboard",
			wantName: "a",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			auth := mock_session.NewMockAuthenticator(c)
			tt.behavior(t, auth)
			m, _ := newManager(auth)

			sess, err := m.Login(context.Background(), creds)
			require.NoError(t, err)
			require.NotEmpty(t, sess.ID)
			require.Equal(t, tt.wantRole, sess.Role)
			require.Equal(t, tt.wantHome, sess.Home())
			require.Equal(t, tt.wantName, sess.DisplayName())

			loaded, err := m.Init(context.Background(), sess.ID)
			require.NoError(t, err)
			require.Equal(t, sess, loaded)
		})
	}
}

func TestManager_LoginFailure(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	auth := mock_session.NewMockAuthenticator(c)
	auth.EXPECT().Login(gomock.Any(), creds).
		Return(model.LoginResponse{}, &errs.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials", Parsed: true})
	m, _ := newManager(auth)

	sess, err := m.Login(context.Background(), creds)
	require.Nil(t, sess)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, "Invalid credentials", errs.UserMessage(err, "Login failed"))
}

func TestManager_InitAndClear(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	auth := mock_session.NewMockAuthenticator(c)
	auth.EXPECT().Login(gomock.Any(), creds).
		Return(model.LoginResponse{Token: "t1", Role: model.RoleStudent}, nil)
	m, _ := newManager(auth)

	var cleared []string
	m.OnClear(func(id string) { cleared = append(cleared, id) })

	sess, err := m.Init(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, sess)
	sess, err = m.Init(context.Background(), "unknown")
	require.NoError(t, err)
	require.Nil(t, sess)

	sess, err = m.Login(context.Background(), creds)
	require.NoError(t, err)
	require.NoError(t, m.Clear(context.Background(), sess.ID))
	require.Equal(t, []string{sess.ID}, cleared)

	loaded, err := m.Init(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestManager_Refresh(t *testing.T) {
	t.Parallel()
	base := &session.Session{
		ID:    "s1",
		Token: "t1",
		Role:  model.RoleStudent,
		User:  model.User{Email: "a@ashesi.edu.gh", Role: model.RoleStudent},
	}

	t.Run("updates identity", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		auth := mock_session.NewMockAuthenticator(c)
		auth.EXPECT().Me(gomock.Any()).
			Return(model.User{ID: "9", Name: "Ama", Major: "CE", YearGroup: 2026}, nil)
		m, store := newManager(auth)
		require.NoError(t, store.Save(context.Background(), base))

		sess, err := m.Refresh(context.Background(), base)
		require.NoError(t, err)
		require.Equal(t, model.User{ID: "9", Name: "Ama", Email: "a@ashesi.edu.gh", Role: model.RoleStudent, Major: "CE", YearGroup: 2026}, sess.User)
		require.Equal(t, model.RoleStudent, sess.Role)
	})

	t.Run("keeps identity when whoami fails", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		auth := mock_session.NewMockAuthenticator(c)
		auth.EXPECT().Me(gomock.Any()).Return(model.User{}, &errs.APIError{Status: http.StatusInternalServerError})
		m, _ := newManager(auth)

		sess, err := m.Refresh(context.Background(), base)
		require.NoError(t, err)
		require.Equal(t, base, sess)
	})

	t.Run("401 clears the session", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		auth := mock_session.NewMockAuthenticator(c)
		auth.EXPECT().Me(gomock.Any()).
			Return(model.User{}, errors.Wrap(&errs.APIError{Status: http.StatusUnauthorized}, "auth.Me"))
		m, store := newManager(auth)
		require.NoError(t, store.Save(context.Background(), base))

		sess, err := m.Refresh(context.Background(), base)
		require.Nil(t, sess)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
		_, err = store.Get(context.Background(), "s1")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestCookie(t *testing.T) {
	t.Parallel()
	cfg := config.Session{TTL: 2 * time.Hour, CookieSecure: true}

	c := session.NewCookie(&session.Session{ID: "abc"}, cfg)
	require.Equal(t, session.CookieName, c.Name)
	require.Equal(t, "abc", c.Value)
	require.Equal(t, 7200, c.MaxAge)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)

	require.Equal(t, -1, session.ExpiredCookie(cfg).MaxAge)
}
