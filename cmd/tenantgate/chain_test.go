package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/tenantgate/pkg/httputil"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/session"
)

func TestPublicChain_LimitsBodies(t *testing.T) {
	sessions := session.NewMiddleware(session.NewJWTProvider([]byte("secret"), ""), "token", nil)
	handler := publicChain(observability.NopLogger(), sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !httputil.ParseJSONOrError(w, r, &body) {
			return
		}
		httputil.WriteSuccess(w, body)
	}))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"small body", `{"lang":"tr"}`, http.StatusOK},
		{"oversized body", `{"lang":"` + strings.Repeat("x", maxRequestBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/language", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))
		})
	}
}
