package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPFixture(t *testing.T) (*HTTPClient, *fakeAccounts) {
	t.Helper()
	acc := newFakeAccounts(t)
	srv := httptest.NewServer(httpapi.NewRouter(acc, acc.issuer, logging.Nop{}, 0))
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, acc
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "127.0.0.1:8080", "ftp://host", "http://"} {
		_, err := NewHTTPClient(u, time.Second)
		assert.Error(t, err, u)
	}
}

func TestHTTPClient_Flow(t *testing.T) {
	c, acc := newHTTPFixture(t)
	ctx := context.Background()

	id, err := c.Register(ctx, "a@x.com", []byte(goodPassword))
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	require.NoError(t, c.ConfirmEmail(ctx, "u-1", "good"))
	assert.Equal(t, [2]string{"u-1", "good"}, acc.confirmed)

	assert.False(t, c.LoggedIn())
	s, err := c.Login(ctx, "a@x.com", []byte(goodPassword))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", s.Email)
	assert.True(t, s.ExpiresAt.After(time.Now()))
	assert.True(t, c.LoggedIn())

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, "u-1", acc.loggedOut)
	assert.False(t, c.LoggedIn())

	_, err = c.Login(ctx, "a@x.com", []byte(goodPassword))
	require.NoError(t, err)
	require.NoError(t, c.DeleteAccount(ctx))
	assert.Equal(t, "u-1", acc.deleted)
	assert.False(t, c.LoggedIn())
}

func TestHTTPClient_Errors(t *testing.T) {
	c, _ := newHTTPFixture(t)
	ctx := context.Background()

	_, err := c.Register(ctx, "a@x.com", []byte("weak"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Messages[0], "digit")

	_, err = c.Login(ctx, "a@x.com", []byte("wrong"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, c.LoggedIn())

	err = c.ConfirmEmail(ctx, "u-1", "bad")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"error confirming your email"}, apiErr.Messages)

	assert.ErrorIs(t, c.Logout(ctx), ErrNotLoggedIn)
	assert.ErrorIs(t, c.DeleteAccount(ctx), ErrNotLoggedIn)
}

func TestHTTPClient_RejectedTokenIsDropped(t *testing.T) {
	c, _ := newHTTPFixture(t)
	c.accessToken = "forged"

	assert.ErrorIs(t, c.Logout(context.Background()), ErrUnauthorized)
	assert.False(t, c.LoggedIn())
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"too many requests"}`, ErrRateLimited},
		{"server error", http.StatusInternalServerError, `{"error":"internal error"}`, ErrUnavailable},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid email or password"}`, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewHTTPClient(srv.URL, time.Second)
			require.NoError(t, err)
			_, err = c.Login(context.Background(), "a@x.com", []byte("pw"))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestHTTPClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second)
	require.NoError(t, err)
	_, err = c.Register(context.Background(), "a@x.com", []byte(goodPassword))
	assert.ErrorIs(t, err, ErrUnavailable)
}
