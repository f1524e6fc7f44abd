package handlers

import (
	"context"
	"net/http"

	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"go.opentelemetry.io/otel/trace"
)

// AuthService is the slice of the auth service the HTTP layer needs.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthHandler serves login and logout
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Connect handles GET /connect with Basic credentials
func (ah *AuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "connect",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	email, password, ok := r.BasicAuth()
	if !ok {
		writeError(w, common.ErrUnauthorized)
		return
	}

	token, err := ah.auth.Login(ctx, email, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Disconnect handles GET /disconnect with the X-Token header
func (ah *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "disconnect",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if err := ah.auth.Logout(ctx, r.Header.Get(XTokenHeader)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
