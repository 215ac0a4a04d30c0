package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/tracking"
)

type noLinkTokens struct{}

func (noLinkTokens) GetByID(_ context.Context, _, _ string) (*domain.LinkToken, error) {
	return nil, apperr.NotFound("link token not found")
}

func (noLinkTokens) IncrementClickCount(_ context.Context, _ string) error { return nil }

type staticTokens map[string]string

func (s staticTokens) OrganizerIDForToken(_ context.Context, token string) (string, error) {
	id, ok := s[token]
	if !ok {
		return "", apperr.NotFound("unknown api token")
	}
	return id, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandlers(nil, nil, nil, nil, nil, nil, nil, tracking.Links{}, nil, nil)
	th := tracking.NewHandler(noLinkTokens{}, nil, nil, nil, nil, nil, tracking.Links{}, "https://givebridge.org")
	m := auth.NewManager(staticTokens{"tok-good": "org-1"}, time.Minute)
	return SetupRoutes(h, th, m, []string{"*"})
}

func TestAPIRequiresBearerToken(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/audit")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthIsPublic(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestClickEndpointIsPublic(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/t/click/unknown-token")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://givebridge.org", resp.Header.Get("Location"))
}
