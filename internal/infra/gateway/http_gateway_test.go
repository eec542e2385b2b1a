package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	domain "birthday_reminder_bot/internal/domain/gateway"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestNormalizeRecipient(t *testing.T) {
	assert.Equal(t, "15551234567", domain.NormalizeRecipient("+1 (555) 123-4567"))
	assert.Equal(t, "123456", domain.NormalizeRecipient("123456@g.us"))
	assert.Equal(t, "", domain.NormalizeRecipient("nobody"))
}

func TestSendPostsNormalizedRecipient(t *testing.T) {
	var got struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "prov-7"})
	}))
	defer provider.Close()

	g := NewHTTPGateway(provider.URL, "", "", "tok-1", time.Second, testLog())
	res, err := g.Send(context.Background(), "+1 555 0000", "happy birthday")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "prov-7", res.MessageID)
	assert.Equal(t, "15550000", got.To)
	assert.Equal(t, "happy birthday", got.Message)
}

func TestSendReauthenticatesOnceOnExpiredCredentials(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "after-refresh"})
	}))
	defer provider.Close()

	authCalls := 0
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
	}))
	defer auth.Close()

	g := NewHTTPGateway(provider.URL, auth.URL, "api-key", "stale", time.Second, testLog())
	res, err := g.Send(context.Background(), "555", "hello")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "after-refresh", res.MessageID)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 2, attempts, "exactly one retry after re-authentication")
}

func TestSendOtherFailuresAreTerminal(t *testing.T) {
	count := 0
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "provider down"})
	}))
	defer provider.Close()

	g := NewHTTPGateway(provider.URL, "", "", "tok", time.Second, testLog())
	res, err := g.Send(context.Background(), "555", "hello")

	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "provider down")
	assert.Equal(t, 1, count, "non-auth failures are not retried")
}
