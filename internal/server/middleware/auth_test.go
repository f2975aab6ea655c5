package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	const key = "secret-key"

	cases := []struct {
		name       string
		apiKey     string
		setHeaders func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "disabled when no key configured",
			apiKey:     "",
			setHeaders: func(r *http.Request) {},
			wantStatus: http.StatusOK,
		},
		{
			name:   "bearer token accepted",
			apiKey: key,
			setHeaders: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+key)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "x-api-key accepted",
			apiKey: key,
			setHeaders: func(r *http.Request) {
				r.Header.Set("X-API-Key", key)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token rejected",
			apiKey:     key,
			setHeaders: func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "wrong token rejected",
			apiKey: key,
			setHeaders: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer wrong")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "malformed authorization header rejected",
			apiKey: key,
			setHeaders: func(r *http.Request) {
				r.Header.Set("Authorization", key)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(tc.apiKey)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			tc.setHeaders(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
