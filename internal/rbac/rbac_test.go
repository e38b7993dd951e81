package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAllows(t *testing.T) {
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"viewer", PermRunView, true},
		{"viewer", PermRunExport, true},
		{"viewer", PermRunCreate, false},
		{"grader", PermRunCreate, true},
		{"grader", "asset:upload", false},
		{"admin", "anything:at-all", true},
		{"", PermRunView, false},
		{"student", PermRunView, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultPolicy.Allows(tt.role, tt.perm), "%s %s", tt.role, tt.perm)
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "ann", Role: "grader"})
	p, ok := PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, Principal{Subject: "ann", Role: "grader"}, p)
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermRunCreate)(ok)

	serve := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", nil).WithContext(ctx))
		return rec.Code
	}
	bg := context.Background()
	assert.Equal(t, http.StatusUnauthorized, serve(bg))
	assert.Equal(t, http.StatusForbidden, serve(WithPrincipal(bg, Principal{Subject: "v", Role: "viewer"})))
	assert.Equal(t, http.StatusNoContent, serve(WithPrincipal(bg, Principal{Subject: "g", Role: "grader"})))

	custom := Policy{"viewer": {"run:*"}}
	h = custom.Require(PermRunCreate)(ok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", nil).WithContext(WithPrincipal(bg, Principal{Role: "viewer"})))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
