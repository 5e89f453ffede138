// Package grpc exposes the account service over gRPC with a JSON codec.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server/auth"
	"github.com/dmitrijs2005/testmart/internal/server/services"
	"google.golang.org/grpc"
)

// Accounts is the part of the account service the gRPC layer drives.
type Accounts interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (*services.AccessToken, error)
	Logout(ctx context.Context, userID string) error
	ConfirmEmail(ctx context.Context, userID, token string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address  string
	accounts Accounts
	tokens   TokenVerifier
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, accounts Accounts, tokens TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
		tokens:   tokens,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
	)
	RegisterAccountServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
