package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrRejected возвращается, когда сервис проверки счёл токен невалидным.
var ErrRejected = errors.New("captcha verification rejected")

// Verifier проверяет captcha-токен, полученный от клиента при регистрации.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type Config struct {
	VerifyURL string
	Secret    string
}

// Client ходит во внешний siteverify-совместимый endpoint.
type Client struct {
	client *http.Client
	config Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verify отправляет form-POST с секретом и токеном; сетевые ошибки и не-2xx
// считаются ошибкой инфраструктуры, а success=false — отказом проверки.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", c.config.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha verify endpoint returned status %d", resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return fmt.Errorf("failed to decode verify response: %w", err)
	}
	if !vr.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(vr.ErrorCodes, ","))
	}
	return nil
}
