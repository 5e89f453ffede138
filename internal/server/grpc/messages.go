package grpc

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type ConfirmEmailRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type ConfirmEmailResponse struct{}

type DeleteAccountRequest struct{}

type DeleteAccountResponse struct{}
