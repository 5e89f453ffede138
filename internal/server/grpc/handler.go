package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/testmart/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {

	id, err := s.accounts.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &RegisterResponse{UserID: id}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {

	tok, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &LoginResponse{AccessToken: tok.Token, ExpiresAt: tok.ExpiresAt.Unix()}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if err := s.accounts.Logout(ctx, claims.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &LogoutResponse{}, nil
}

func (s *GRPCServer) ConfirmEmail(ctx context.Context, req *ConfirmEmailRequest) (*ConfirmEmailResponse, error) {

	if err := s.accounts.ConfirmEmail(ctx, req.UserID, req.Code); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &ConfirmEmailResponse{}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *DeleteAccountRequest) (*DeleteAccountResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if err := s.accounts.DeleteAccount(ctx, claims.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &DeleteAccountResponse{}, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, strings.Join(ve.Messages, "\n"))
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	case errors.Is(err, common.ErrorConfirmationFailed):
		return status.Error(codes.FailedPrecondition, common.ErrorConfirmationFailed.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "user not found")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
