package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/Astemirdum/fabtrack/internal/model"
	jwt "github.com/golang-jwt/jwt/v4"
)

const (
	AdminHome   = "/admin"
	StudentHome = "/dashboard"
	LoginPath   = "/login"
)

// Session is what the portal keeps for one signed-in browser.
type Session struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Role      model.Role `json:"role"`
	User      model.User `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role.IsAdmin() }

// Home is the landing page for the session's role.
func (s *Session) Home() string {
	if s.IsAdmin() {
		return AdminHome
	}
	return StudentHome
}

// DisplayName falls back to the local part of the email.
func (s *Session) DisplayName() string {
	if s.User.Name != "" {
		return s.User.Name
	}
	if at := strings.IndexByte(s.User.Email, '@'); at > 0 {
		return strings.ReplaceAll(s.User.Email[:at], ".", " ")
	}
	return s.User.Email
}

// claimsFromToken reads identity claims without checking the signature. The
// backend verifies tokens; the portal only needs the role for routing.
func claimsFromToken(token string) (model.User, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return model.User{}, false
	}
	u := model.User{
		ID:    model.ID(claimString(claims, "id", "userID", "sub", "nameid")),
		Name:  claimString(claims, "name", "Name"),
		Email: claimString(claims, "email", "Email"),
	}
	u.Role, _ = model.ParseRole(claimString(claims, "role", "Role"))
	return u, true
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// merge fills the empty fields of u from other.
func merge(u *model.User, other model.User) {
	if u.ID == "" {
		u.ID = other.ID
	}
	if u.Name == "" {
		u.Name = other.Name
	}
	if u.Email == "" {
		u.Email = other.Email
	}
	if u.Role == "" {
		u.Role = other.Role
	}
	if u.Major == "" {
		u.Major = other.Major
	}
	if u.YearGroup == 0 {
		u.YearGroup = other.YearGroup
	}
}
