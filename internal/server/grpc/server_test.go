package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server/auth"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/dmitrijs2005/testmart/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeAccounts struct {
	registerErr error
	loginErr    error
	confirmErr  error
	deleteErr   error

	loggedOut string
	deleted   string
	confirmed [2]string
}

func (f *fakeAccounts) Register(context.Context, string, string) (string, error) {
	return "u-1", f.registerErr
}

func (f *fakeAccounts) Login(context.Context, string, string) (*services.AccessToken, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.AccessToken{Token: "jwt", ExpiresAt: time.Unix(1_800_000_000, 0)}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, userID string) error {
	f.loggedOut = userID
	return nil
}

func (f *fakeAccounts) ConfirmEmail(_ context.Context, userID, code string) error {
	f.confirmed = [2]string{userID, code}
	return f.confirmErr
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, userID string) error {
	f.deleted = userID
	return f.deleteErr
}

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "testmart",
		Audience: "testmart-api",
		Expiry:   time.Hour,
	}, nil)
	require.NoError(t, err)
	return iss
}

// startServer serves on an in-memory listener and returns a connected client.
func startServer(t *testing.T, acc Accounts, iss *auth.Issuer) *AccountServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop{}, acc, iss)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	return NewAccountServiceClient(conn)
}

func withToken(ctx context.Context, tok string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, tok)
}

func TestRegisterAndLogin(t *testing.T) {
	c := startServer(t, &fakeAccounts{}, newIssuer(t))
	ctx := context.Background()

	reg, err := c.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "Str0ng!Passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", reg.UserID)

	login, err := c.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "Str0ng!Passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", login.AccessToken)
	assert.Equal(t, int64(1_800_000_000), login.ExpiresAt)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		acc  *fakeAccounts
		call func(c *AccountServiceClient) error
		want codes.Code
	}{
		{
			name: "validation",
			acc:  &fakeAccounts{registerErr: common.NewValidationError("too short")},
			call: func(c *AccountServiceClient) error {
				_, err := c.Register(context.Background(), &RegisterRequest{})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "bad credentials",
			acc:  &fakeAccounts{loginErr: common.ErrorUnauthorized},
			call: func(c *AccountServiceClient) error {
				_, err := c.Login(context.Background(), &LoginRequest{})
				return err
			},
			want: codes.Unauthenticated,
		},
		{
			name: "confirmation",
			acc:  &fakeAccounts{confirmErr: common.ErrorConfirmationFailed},
			call: func(c *AccountServiceClient) error {
				_, err := c.ConfirmEmail(context.Background(), &ConfirmEmailRequest{UserID: "u", Code: "c"})
				return err
			},
			want: codes.FailedPrecondition,
		},
		{
			name: "internal",
			acc:  &fakeAccounts{loginErr: common.ErrorInternal},
			call: func(c *AccountServiceClient) error {
				_, err := c.Login(context.Background(), &LoginRequest{})
				return err
			},
			want: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, tt.acc, newIssuer(t))
			assert.Equal(t, tt.want, status.Code(tt.call(c)))
		})
	}
}

func TestProtectedMethods(t *testing.T) {
	iss := newIssuer(t)
	tok, _, err := iss.Issue(&models.User{ID: "u-1", Email: "a@x.com"})
	require.NoError(t, err)

	acc := &fakeAccounts{}
	c := startServer(t, acc, iss)
	ctx := context.Background()

	_, err = c.Logout(ctx, &LogoutRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "missing token", status.Convert(err).Message())

	_, err = c.DeleteAccount(withToken(ctx, "not-a-valid-jwt"), &DeleteAccountRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.Logout(withToken(ctx, tok), &LogoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", acc.loggedOut)

	_, err = c.DeleteAccount(withToken(ctx, tok), &DeleteAccountRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", acc.deleted)

	acc.deleteErr = common.ErrorNotFound
	_, err = c.DeleteAccount(withToken(ctx, tok), &DeleteAccountRequest{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestConfirmEmail_PassesFields(t *testing.T) {
	acc := &fakeAccounts{}
	c := startServer(t, acc, newIssuer(t))

	_, err := c.ConfirmEmail(context.Background(), &ConfirmEmailRequest{UserID: "u-9", Code: "abc"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"u-9", "abc"}, acc.confirmed)
}

func TestInterceptor_UnprotectedAllowsWithoutToken(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, &fakeAccounts{}, newIssuer(t))

	info := &grpc.UnaryServerInfo{FullMethod: MethodRegister}
	handlerCalled := false
	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	require.NoError(t, err)
	assert.True(t, handlerCalled)
	assert.Equal(t, "ok", resp)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, &fakeAccounts{}, newIssuer(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeAccounts{}, newIssuer(t))
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
