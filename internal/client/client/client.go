package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/testmart/internal/client/config"
)

// Session is the result of a successful login.
type Session struct {
	Email     string
	ExpiresAt time.Time
}

// AccountClient is the surface the CLI drives.
type AccountClient interface {
	Register(ctx context.Context, email string, password []byte) (userID string, err error)
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	ConfirmEmail(ctx context.Context, userID, code string) error
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	LoggedIn() bool
	Close() error
}

// New picks the transport from c: gRPC when an address is configured,
// HTTP otherwise.
func New(c *config.Config) (AccountClient, error) {
	if c.GRPCAddr != "" {
		return NewGRPCClient(c.GRPCAddr, c.RequestTimeout)
	}
	return NewHTTPClient(c.ServerURL, c.RequestTimeout)
}
