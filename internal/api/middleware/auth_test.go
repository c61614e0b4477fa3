package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingJWTService returns a fixed validation error.
type failingJWTService struct {
	auth.JWTService
	err error
}

func (f failingJWTService) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return nil, f.err
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	jwtSvc := auth.RequireTestJWTService(t)
	customer := auth.NewTestCustomer(uuid.New())

	tests := []struct {
		name           string
		svc            auth.JWTService
		authHeader     string
		expectedStatus int
		wantPrincipal  *domain.Principal
	}{
		{
			name:           "valid token",
			svc:            jwtSvc,
			authHeader:     auth.RequireAuthHeader(t, jwtSvc, customer),
			expectedStatus: http.StatusOK,
			wantPrincipal:  &customer,
		},
		{
			name:           "missing auth header",
			svc:            jwtSvc,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid auth format",
			svc:            jwtSvc,
			authHeader:     "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bearer without token",
			svc:            jwtSvc,
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			svc:            jwtSvc,
			authHeader:     "Bearer not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			svc:            failingJWTService{err: auth.ErrExpiredToken},
			authHeader:     "Bearer whatever",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unexpected validation failure",
			svc:            failingJWTService{err: errors.New("boom")},
			authHeader:     "Bearer whatever",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got domain.Principal
			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				got, _ = shared.GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/sales/products", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()

			NewAuthMiddleware(tc.svc).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.wantPrincipal != nil {
				require.True(t, reached)
				assert.Equal(t, *tc.wantPrincipal, got)
				return
			}
			assert.False(t, reached)

			var resp shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tc.expectedStatus == http.StatusUnauthorized {
				assert.Equal(t, CodeUnauthorized, resp.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		header  string
		token   string
		problem bool
	}{
		"well formed":   {header: "Bearer abc.def.ghi", token: "abc.def.ghi"},
		"empty":         {header: "", problem: true},
		"basic scheme":  {header: "Basic dXNlcjpwYXNz", problem: true},
		"lowercase":     {header: "bearer abc", problem: true},
		"extra segment": {header: "Bearer abc def", problem: true},
		"missing token": {header: "Bearer", problem: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			token, problem := bearerToken(req)
			assert.Equal(t, tc.token, token)
			assert.Equal(t, tc.problem, problem != "")
		})
	}
}
