package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/nextdoorbuddy/neighborchat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

var testSigningKey = []byte("test-signing-key")

func signedToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func newTestApp(t *testing.T) *NeighborChatApp {
	return &NeighborChatApp{
		log:        testutil.TestLogger(t),
		signingKey: testSigningKey,
	}
}

func Test_bearerFromRequest(t *testing.T) {
	tcases := []struct {
		name     string
		header   string
		query    string
		expected string
	}{
		{name: "bearer header", header: "Bearer abc", expected: "abc"},
		{name: "query fallback", query: "abc", expected: "abc"},
		{name: "header wins over query", header: "Bearer fromheader", query: "fromquery", expected: "fromheader"},
		{name: "malformed header", header: "Basic abc", expected: ""},
		{name: "nothing", expected: ""},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/ws"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			assert.Equal(t, tc.expected, bearerFromRequest(r), "unexpected token extracted")
		})
	}
}

func TestNeighborChatApp_authMiddleware(t *testing.T) {
	t.Run("valid token reaches handler with user id", func(t *testing.T) {
		s := newTestApp(t)

		token := signedToken(t, testSigningKey, jwt.MapClaims{
			"user_id": 7,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		var gotUserId int
		handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			gotUserId, _ = UserId(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		r := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler(w, r)

		assert.Equal(t, http.StatusOK, w.Code, "expected handler to run")
		assert.Equal(t, 7, gotUserId, "expected user id from token claim")
	})

	t.Run("missing token", func(t *testing.T) {
		s := newTestApp(t)

		handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run without a token")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		w := httptest.NewRecorder()

		handler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 without token")
		assert.Contains(t, w.Body.String(), CodeAuthMissing, "expected AUTH_MISSING code")
	})

	t.Run("token signed with wrong key", func(t *testing.T) {
		s := newTestApp(t)

		token := signedToken(t, []byte("other-key"), jwt.MapClaims{
			"user_id": 7,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run with a bad token")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 for bad signature")
		assert.Contains(t, w.Body.String(), CodeAuthInvalid, "expected AUTH_INVALID code")
	})

	t.Run("expired token", func(t *testing.T) {
		s := newTestApp(t)

		token := signedToken(t, testSigningKey, jwt.MapClaims{
			"user_id": 7,
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})

		handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run with an expired token")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 for expired token")
	})

	t.Run("token without user id claim", func(t *testing.T) {
		s := newTestApp(t)

		token := signedToken(t, testSigningKey, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run without a user id claim")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 without user id claim")
	})
}
