package httpapi

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type handlers struct {
	accounts Accounts
	tokens   TokenVerifier
	logger   logging.Logger
	validate *validator.Validate
}

// NewRouter builds the route table. rateLimit is requests per second per
// client address on register and login; zero disables limiting.
func NewRouter(accounts Accounts, tokens TokenVerifier, l logging.Logger, rateLimit float64) http.Handler {
	h := &handlers{accounts: accounts, tokens: tokens, logger: l, validate: validator.New()}

	r := mux.NewRouter()
	r.Use(h.requestLogger)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	s := r.PathPrefix("/account").Subrouter()
	s.Handle("/register", limit(rateLimit, h.register)).Methods(http.MethodPost)
	s.Handle("/login", limit(rateLimit, h.login)).Methods(http.MethodPost)
	s.Handle("/logout", h.requireBearer(h.logout)).Methods(http.MethodPost)
	s.HandleFunc("/confirmemail", h.confirmEmail).Methods(http.MethodGet)
	s.Handle("/delete", h.requireBearer(h.deleteAccount)).Methods(http.MethodDelete)

	return r
}

// limit wraps fn in a per-client-address token bucket.
func limit(rate float64, fn http.HandlerFunc) http.Handler {
	if rate <= 0 {
		return fn
	}
	lmt := tollbooth.NewLimiter(rate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr"})
	lmt.SetMessage(`{"error":"too many requests"}`)
	lmt.SetMessageContentType("application/json")
	return tollbooth.LimitHandler(lmt, fn)
}
