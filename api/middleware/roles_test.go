package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role enums.ActorRole
		want int
	}{
		{name: "admin", role: enums.ActorRoleAdmin, want: http.StatusOK},
		{name: "merchandiser", role: enums.ActorRoleMerchandiser, want: http.StatusForbidden},
		{name: "anonymous", role: "", want: http.StatusForbidden},
	}

	handler := RequireRole(nil, enums.ActorRoleAdmin)(okHandler())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithActor(req.Context(), "user-1", tc.role))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestRequireRoleAcceptsAnyListedRole(t *testing.T) {
	handler := RequireRole(nil, enums.ActorRoleAdmin, enums.ActorRoleMerchandiser)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithActor(req.Context(), "user-1", enums.ActorRoleMerchandiser))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
