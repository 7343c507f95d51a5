package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/darasa/core"
)

// Role determines what a session may do in the course composer:
// admins pick any instructor and submit, instructors are auto-assigned
// to their own courses, students and anonymous visitors may browse but
// never submit.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleAnonymous  Role = "anonymous"
)

var AllRoles = []Role{RoleStudent, RoleInstructor, RoleAdmin}

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return Role(s)
	}
	return RoleAnonymous
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Session is a read-only, time-bounded view of an authenticated user.
// A zero Session is the anonymous session.
type Session struct {
	Role      Role
	UserID    string
	Name      string
	Email     string
	Token     string
	ExpiresAt time.Time
}

func Anonymous() Session {
	return Session{Role: RoleAnonymous}
}

func (s Session) IsAnonymous() bool { return s.Role == RoleAnonymous || s.UserID == "" }

// Expired reports whether the session's expiry has passed. Sessions
// without an expiry never expire on this axis.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

var nowFunc = time.Now // mockable

// Read extracts a Session from a signed token string. An absent,
// malformed, tampered or expired token degrades to the anonymous
// session; it never returns an error so callers can always render a
// "please sign in" state instead of crashing.
func Read(token string) Session {
	if token == "" {
		return Anonymous()
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(core.Conf.SecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return Anonymous()
	}
	sess := FromClaims(*claims)
	sess.Token = token
	return sess
}

// FromClaims builds a Session from already-verified claims, applying
// the same degrade rules as Read. Expiry is checked lazily here on
// every read rather than via a timer.
func FromClaims(claims Claims) Session {
	sess := Session{
		Role:   ParseRole(claims.Role),
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
	}
	if claims.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	if sess.UserID == "" || sess.Expired(nowFunc()) {
		return Anonymous()
	}
	return sess
}
