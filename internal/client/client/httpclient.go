package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
)

const maxResponseBytes = 1 << 20

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerReply struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginReply struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type errorReply struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
}

// HTTPClient calls the JSON HTTP API.
type HTTPClient struct {
	baseURL     *url.URL
	httpc       *http.Client
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be an absolute http(s) url", baseURL)
	}
	return &HTTPClient{baseURL: u, httpc: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) Register(ctx context.Context, email string, password []byte) (string, error) {
	var out registerReply
	body := credentials{Email: email, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/account/register", nil, body, &out, false); err != nil {
		return "", err
	}
	return out.UserID, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	var out loginReply
	body := credentials{Email: email, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/account/login", nil, body, &out, false); err != nil {
		return nil, err
	}

	exp, err := time.Parse(time.RFC3339, out.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse token expiry: %w", err)
	}

	c.accessToken = out.Token
	return &Session{Email: email, ExpiresAt: exp}, nil
}

func (c *HTTPClient) ConfirmEmail(ctx context.Context, userID, code string) error {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("code", code)
	return c.do(ctx, http.MethodGet, "/account/confirmemail", q, nil, nil, false)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	if c.accessToken == "" {
		return ErrNotLoggedIn
	}
	err := c.do(ctx, http.MethodPost, "/account/logout", nil, nil, nil, true)
	if err == nil || errors.Is(err, ErrUnauthorized) {
		c.accessToken = ""
	}
	return err
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if c.accessToken == "" {
		return ErrNotLoggedIn
	}
	if err := c.do(ctx, http.MethodDelete, "/account/delete", nil, nil, nil, true); err != nil {
		return err
	}
	c.accessToken = ""
	return nil
}

func (c *HTTPClient) LoggedIn() bool { return c.accessToken != "" }

func (c *HTTPClient) Close() error {
	c.httpc.CloseIdleConnections()
	c.accessToken = ""
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", common.BearerScheme+" "+c.accessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var er errorReply
	if err := json.Unmarshal(data, &er); err != nil {
		return &APIError{Messages: []string{resp.Status}}
	}
	msgs := er.Errors
	if er.Error != "" {
		msgs = append(msgs, er.Error)
	}
	return &APIError{Messages: msgs}
}
