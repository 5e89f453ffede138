package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 16

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required,max=72"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []string `json:"errors"`
}

const (
	msgRegistered  = "Registration successful. Please check your email to confirm your account."
	msgLoggedOut   = "User logged out successfully."
	msgConfirmed   = "Email confirmed successfully."
	msgDeleted     = "User account deleted successfully."
	msgUserMissing = "user not found"
	msgInternal    = "internal error"
	msgBadBody     = "invalid request body"
)

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: fieldErrors(err)})
		return
	}

	id, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Message: msgRegistered, UserID: id})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
		return
	}

	tok, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: tok.Token, ExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC3339)})
}

// logout acknowledges the caller. The token itself stays valid until it
// expires; clients are expected to discard it.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.accounts.Logout(r.Context(), claims.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
}

func (h *handlers) confirmEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, code := q.Get("userId"), q.Get("code")
	if userID == "" || code == "" {
		writeError(w, http.StatusBadRequest, common.ErrorConfirmationFailed.Error())
		return
	}

	if err := h.accounts.ConfirmEmail(r.Context(), userID, code); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgConfirmed})
}

// deleteAccount removes the caller's own account. Access tokens issued
// before the deletion are not revoked.
func (h *handlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.accounts.DeleteAccount(r.Context(), claims.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgDeleted})
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: ve.Messages})
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
	case errors.Is(err, common.ErrorConfirmationFailed):
		writeError(w, http.StatusBadRequest, common.ErrorConfirmationFailed.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, msgUserMissing)
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// fieldErrors turns validator output into client-facing messages.
func fieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{msgBadBody}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fe.Field()+" is required.")
		case "email":
			out = append(out, fe.Field()+" is not a valid email address.")
		case "max":
			out = append(out, fe.Field()+" must be at most "+fe.Param()+" characters.")
		default:
			out = append(out, fe.Field()+" is invalid.")
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
