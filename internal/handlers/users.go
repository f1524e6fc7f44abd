package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// UsersHandler serves signup and the current-user endpoint
type UsersHandler struct {
	auth AuthService
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(auth AuthService) *UsersHandler {
	return &UsersHandler{auth: auth}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Create handles POST /users
func (uh *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "create_user",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req signupRequest
	// An unreadable body is treated the same as an empty one; the service
	// reports the missing field.
	decodeBody(r, &req)

	user, err := uh.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Me handles GET /users/me
func (uh *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "get_me",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	user, err := uh.auth.CurrentUser(ctx, r.Header.Get(XTokenHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}
