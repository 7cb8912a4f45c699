package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenantgate/pkg/contextkeys"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tenantgate-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   "42",
		Username: "ayse",
		Permissions: []rbac.Grant{
			{CompanyID: "c-1", Permissions: "ev"},
		},
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"access header", func(r *http.Request) { r.Header.Set(TokenHeader, "t1") }, "t1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer t2") }, "t2"},
		{"bearer lowercase", func(r *http.Request) { r.Header.Set("Authorization", "bearer t3") }, "t3"},
		{"basic ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "t4"}) }, "t4"},
		{"header wins", func(r *http.Request) {
			r.Header.Set(TokenHeader, "t5")
			r.Header.Set("Authorization", "Bearer other")
		}, "t5"},
		{"none", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.want, ExtractToken(r, ""))
		})
	}
}

func TestJWTProvider_Resolve(t *testing.T) {
	provider := NewJWTProvider(testSecret, "tenantgate-test")

	user, err := provider.Resolve(context.Background(), signToken(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "ayse", user.Username)
	require.Len(t, user.Permissions, 1)
	assert.Equal(t, rbac.Grant{CompanyID: "c-1", Permissions: "ev"}, user.Permissions[0])
}

func TestJWTProvider_SubjectFallback(t *testing.T) {
	claims := validClaims()
	claims.UserID = ""
	claims.Subject = "sub-7"

	user, err := NewJWTProvider(testSecret, "").Resolve(context.Background(), signToken(t, jwt.SigningMethodHS256, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, "sub-7", user.ID)
}

func TestJWTProvider_Rejects(t *testing.T) {
	provider := NewJWTProvider(testSecret, "tenantgate-test")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	noUser := validClaims()
	noUser.UserID = ""

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"expired":      signToken(t, jwt.SigningMethodHS256, testSecret, expired),
		"wrong issuer": signToken(t, jwt.SigningMethodHS256, testSecret, wrongIssuer),
		"no user":      signToken(t, jwt.SigningMethodHS256, testSecret, noUser),
		"alg none":     signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims()),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := provider.Resolve(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

type staticProvider struct {
	user *rbac.User
	err  error
}

func (p staticProvider) Resolve(context.Context, string) (*rbac.User, error) {
	return p.user, p.err
}

func TestMiddleware(t *testing.T) {
	user := &rbac.User{ID: "42"}

	var got *Session
	var userID string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		userID = contextkeys.GetUserID(r.Context())
	})

	t.Run("valid token", func(t *testing.T) {
		handler := NewMiddleware(staticProvider{user: user}, "", nil).Handler(capture)
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(TokenHeader, "tok")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		require.True(t, got.Authenticated())
		assert.Equal(t, "tok", got.Token)
		assert.Equal(t, "42", userID)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		handler := NewMiddleware(staticProvider{err: errors.New("bad")}, "", nil).Handler(capture)
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(TokenHeader, "tok")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		assert.False(t, got.Authenticated())
		assert.Empty(t, got.Token)
	})

	t.Run("no token", func(t *testing.T) {
		handler := NewMiddleware(staticProvider{user: user}, "", nil).Handler(capture)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		assert.False(t, got.Authenticated())
		assert.Empty(t, userID)
	})
}

func TestFromContext_Anonymous(t *testing.T) {
	sess := FromContext(context.Background())
	require.NotNil(t, sess)
	assert.False(t, sess.Authenticated())

	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
}
