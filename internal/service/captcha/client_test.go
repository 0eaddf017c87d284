package captcha_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlucero/tienda-api/internal/service/captcha"
)

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("secret"))
		assert.Equal(t, "token-123", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := captcha.NewClient(captcha.Config{VerifyURL: srv.URL, Secret: "secret-key"})
	err := client.Verify(context.Background(), "token-123", "10.0.0.1")
	assert.NoError(t, err)
}

func TestVerify_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	client := captcha.NewClient(captcha.Config{VerifyURL: srv.URL, Secret: "secret-key"})
	err := client.Verify(context.Background(), "bad-token", "")
	assert.ErrorIs(t, err, captcha.ErrRejected)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerify_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := captcha.NewClient(captcha.Config{VerifyURL: srv.URL, Secret: "secret-key"})
	err := client.Verify(context.Background(), "token", "")
	// Инфраструктурная ошибка не считается отказом проверки.
	assert.Error(t, err)
	assert.NotErrorIs(t, err, captcha.ErrRejected)
}
