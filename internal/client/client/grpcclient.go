package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	accountrpc "github.com/dmitrijs2005/testmart/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCClient calls the gRPC account service.
type GRPCClient struct {
	conn        *grpc.ClientConn
	client      *accountrpc.AccountServiceClient
	timeout     time.Duration
	accessToken string
}

func NewGRPCClient(addr string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.client = accountrpc.NewAccountServiceClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Register(ctx context.Context, email string, password []byte) (string, error) {
	resp, err := c.client.Register(ctx, &accountrpc.RegisterRequest{Email: email, Password: string(password)})
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.UserID, nil
}

func (c *GRPCClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	resp, err := c.client.Login(ctx, &accountrpc.LoginRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, fromStatus(err)
	}
	c.accessToken = resp.AccessToken
	return &Session{Email: email, ExpiresAt: time.Unix(resp.ExpiresAt, 0).UTC()}, nil
}

func (c *GRPCClient) ConfirmEmail(ctx context.Context, userID, code string) error {
	_, err := c.client.ConfirmEmail(ctx, &accountrpc.ConfirmEmailRequest{UserID: userID, Code: code})
	return fromStatus(err)
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	if c.accessToken == "" {
		return ErrNotLoggedIn
	}
	_, err := c.client.Logout(ctx, &accountrpc.LogoutRequest{})
	err = fromStatus(err)
	if err == nil || errors.Is(err, ErrUnauthorized) {
		c.accessToken = ""
	}
	return err
}

func (c *GRPCClient) DeleteAccount(ctx context.Context) error {
	if c.accessToken == "" {
		return ErrNotLoggedIn
	}
	if _, err := c.client.DeleteAccount(ctx, &accountrpc.DeleteAccountRequest{}); err != nil {
		return fromStatus(err)
	}
	c.accessToken = ""
	return nil
}

func (c *GRPCClient) LoggedIn() bool { return c.accessToken != "" }

func (c *GRPCClient) Close() error {
	c.accessToken = ""
	return c.conn.Close()
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound, codes.AlreadyExists:
		return &APIError{Messages: strings.Split(st.Message(), "\n")}
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	}
}
