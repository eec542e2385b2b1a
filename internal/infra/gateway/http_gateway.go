package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"birthday_reminder_bot/internal/domain/gateway"

	"github.com/sirupsen/logrus"
)

// HTTPGateway delivers messages through an HTTP messaging provider. One
// bounded re-attempt is permitted specifically for credential expiry: on a
// 401 the gateway re-authenticates once and retries; every other failure is
// terminal for that attempt.
type HTTPGateway struct {
	baseURL string
	authURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Entry

	mu    sync.Mutex
	token string
}

func NewHTTPGateway(baseURL, authURL, apiKey, token string, timeout time.Duration, log *logrus.Entry) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		authURL: authURL,
		apiKey:  apiKey,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (g *HTTPGateway) Send(ctx context.Context, recipientID, text string) (gateway.Result, error) {
	to := gateway.NormalizeRecipient(recipientID)
	if to == "" {
		err := fmt.Errorf("recipient %q has no digits after normalization", recipientID)
		return gateway.Result{Success: false, Error: err.Error()}, err
	}

	res, status, err := g.post(ctx, to, text)
	if status == http.StatusUnauthorized && g.authURL != "" {
		g.log.WithField("recipient", to).Warn("Gateway credentials rejected, re-authenticating once")
		if authErr := g.refreshToken(ctx); authErr != nil {
			err = fmt.Errorf("re-authentication failed: %w", authErr)
			return gateway.Result{Success: false, Error: err.Error()}, err
		}
		res, status, err = g.post(ctx, to, text)
	}
	if err != nil {
		return gateway.Result{Success: false, Error: err.Error()}, err
	}
	if status < 200 || status >= 300 {
		msg := res.Error
		if msg == "" {
			msg = res.Message
		}
		err := fmt.Errorf("provider returned status %d: %s", status, msg)
		return gateway.Result{Success: false, Error: err.Error()}, err
	}
	return gateway.Result{Success: true, MessageID: res.ID}, nil
}

func (g *HTTPGateway) post(ctx context.Context, to, text string) (sendResponse, int, error) {
	body, err := json.Marshal(sendRequest{To: to, Message: text})
	if err != nil {
		return sendResponse{}, 0, fmt.Errorf("encoding send request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return sendResponse{}, 0, fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.mu.Lock()
	token := g.token
	g.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpRes, err := g.client.Do(req)
	if err != nil {
		return sendResponse{}, 0, fmt.Errorf("sending message: %w", err)
	}
	defer httpRes.Body.Close()

	var res sendResponse
	raw, _ := io.ReadAll(io.LimitReader(httpRes.Body, 1<<20))
	// Provider error bodies are best-effort JSON; a decode failure still
	// leaves the status code to act on.
	_ = json.Unmarshal(raw, &res)
	return res, httpRes.StatusCode, nil
}

type authResponse struct {
	Token string `json:"token"`
}

func (g *HTTPGateway) refreshToken(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"api_key": g.apiKey})
	if err != nil {
		return fmt.Errorf("encoding auth request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.authURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpRes, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting new token: %w", err)
	}
	defer httpRes.Body.Close()
	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		return fmt.Errorf("auth endpoint returned status %d", httpRes.StatusCode)
	}

	var res authResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return fmt.Errorf("decoding auth response: %w", err)
	}
	if res.Token == "" {
		return fmt.Errorf("auth endpoint returned an empty token")
	}

	g.mu.Lock()
	g.token = res.Token
	g.mu.Unlock()
	g.log.Info("Gateway token refreshed")
	return nil
}
