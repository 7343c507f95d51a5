package session

import (
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/darasa/core"
)

func signToken(t *testing.T, claims Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func testClaims(now time.Time) Claims {
	return Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(time.Hour).Unix(),
		},
		Name:  "Jane Doe",
		Email: "jane@test.test",
		Role:  "instructor",
	}
}

func TestRead(t *testing.T) {
	now := time.Now()

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testClaims(now), core.Conf.SecretKey)

		sess := Read(token)
		if sess.IsAnonymous() {
			t.Fatal("Read() degraded a valid token to anonymous")
		}
		if sess.Role != RoleInstructor || sess.UserID != "user-1" || sess.Name != "Jane Doe" {
			t.Errorf("Read() = %+v", sess)
		}
		if sess.Token != token {
			t.Error("Read() did not carry the raw token")
		}
	})

	// every failure mode degrades to anonymous, never errors
	t.Run("degrade to anonymous", func(t *testing.T) {
		expired := testClaims(now)
		expired.ExpiresAt = now.Add(-time.Minute).Unix()

		noSubject := testClaims(now)
		noSubject.Subject = ""

		valid := signToken(t, testClaims(now), core.Conf.SecretKey)
		tampered := valid[:len(valid)-4] + "aaaa"

		tests := []struct {
			name  string
			token string
		}{
			{name: "absent", token: ""},
			{name: "malformed", token: "not.a.jwt"},
			{name: "tampered signature", token: tampered},
			{name: "wrong key", token: signToken(t, testClaims(now), "some other secret")},
			{name: "expired", token: signToken(t, expired, core.Conf.SecretKey)},
			{name: "no subject", token: signToken(t, noSubject, core.Conf.SecretKey)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				sess := Read(tt.token)
				if !sess.IsAnonymous() {
					t.Errorf("Read() = %+v; want anonymous", sess)
				}
				if sess.Role != RoleAnonymous {
					t.Errorf("Read() role = %s; want anonymous", sess.Role)
				}
			})
		}
	})

	t.Run("unknown role degrades to anonymous role only", func(t *testing.T) {
		claims := testClaims(now)
		claims.Role = "superuser"

		sess := Read(signToken(t, claims, core.Conf.SecretKey))
		if sess.Role != RoleAnonymous {
			t.Errorf("Read() role = %s; want anonymous", sess.Role)
		}
	})
}

func TestRead_noneAlgorithmRejected(t *testing.T) {
	claims := testClaims(time.Now())
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(unsigned, ".") {
		t.Fatal("unexpected token shape")
	}
	if sess := Read(unsigned); !sess.IsAnonymous() {
		t.Errorf("Read() = %+v; want anonymous for alg=none", sess)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "student", want: RoleStudent},
		{in: "instructor", want: RoleInstructor},
		{in: "admin", want: RoleAdmin},
		{in: "anonymous", want: RoleAnonymous},
		{in: "Admin", want: RoleAnonymous},
		{in: "", want: RoleAnonymous},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %s; want %s", tt.in, got, tt.want)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)

	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("Expired() = true before the deadline")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Error("Expired() = false after the deadline")
	}
	if (Session{}).Expired(now) {
		t.Error("Expired() = true without an expiry set")
	}
}
