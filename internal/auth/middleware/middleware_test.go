package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/autocheck/internal/rbac"
)

func TestJWTMiddlewareSetsPrincipal(t *testing.T) {
	a := NewAuthService("k")
	var got rbac.Principal
	var seen bool
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, seen = rbac.PrincipalFromContext(r.Context())
	}))

	tok, err := a.IssueJWT("ann", "viewer")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seen)
	assert.Equal(t, rbac.Principal{Subject: "ann", Role: "viewer"}, got)

	other, err := NewAuthService("other").IssueJWT("ann", "admin")
	require.NoError(t, err)
	for _, hdr := range []string{"", "Bearer " + other, "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, hdr)
	}
}
