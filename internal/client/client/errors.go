package client

import (
	"errors"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrRateLimited  = errors.New("too many requests, try again later")
)

// APIError is a refusal reported by the server.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return "request rejected"
	}
	return strings.Join(e.Messages, "; ")
}
