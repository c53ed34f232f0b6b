package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, key string) int {
	req := httptest.NewRequest(http.MethodPost, "/brochures", nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAPIKeyMiddleware(t *testing.T) {
	h := APIKeyMiddleware("s3cret")(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "s3cret"))
	assert.Equal(t, http.StatusForbidden, serve(h, "wrong"))
	assert.Equal(t, http.StatusForbidden, serve(h, ""))
}

func TestAPIKeyMiddleware_Disabled(t *testing.T) {
	h := APIKeyMiddleware("")(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, ""))
	assert.Equal(t, http.StatusNoContent, serve(h, "anything"))
}
