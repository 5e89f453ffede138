package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/server/auth"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/dmitrijs2005/testmart/internal/server/services"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Str0ng!Passw0rd"

// fakeAccounts stands in for the account service behind both servers.
type fakeAccounts struct {
	mu     sync.Mutex
	issuer *auth.Issuer

	loggedOut string
	deleted   string
	confirmed [2]string
	loginErr  error
}

func (f *fakeAccounts) Register(_ context.Context, email, password string) (string, error) {
	if password != goodPassword {
		return "", common.NewValidationError("Passwords must have at least one digit ('0'-'9').")
	}
	return "u-1", nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.AccessToken, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if password != goodPassword {
		return nil, common.ErrorUnauthorized
	}
	tok, exp, err := f.issuer.Issue(&models.User{ID: "u-1", Email: email})
	if err != nil {
		return nil, err
	}
	return &services.AccessToken{Token: tok, ExpiresAt: exp}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = userID
	return nil
}

func (f *fakeAccounts) ConfirmEmail(_ context.Context, userID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = [2]string{userID, code}
	if code != "good" {
		return common.ErrorConfirmationFailed
	}
	return nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = userID
	return nil
}

func newFakeAccounts(t *testing.T) *fakeAccounts {
	t.Helper()
	iss, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "testmart",
		Audience: "testmart-api",
		Expiry:   time.Hour,
	}, nil)
	require.NoError(t, err)
	return &fakeAccounts{issuer: iss}
}
