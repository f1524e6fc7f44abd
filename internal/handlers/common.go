package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/maverick-lab/filebox/internal/common"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("filebox-handlers")

// XTokenHeader carries the opaque session token.
const XTokenHeader = "X-Token"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody best-effort decodes a JSON request body into dst. Malformed
// bodies leave dst zero-valued; field validation happens in the services.
func decodeBody(r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	defer r.Body.Close()
	_ = json.NewDecoder(r.Body).Decode(dst)
}

// writeError maps service errors onto the HTTP contract: validation errors
// carry their own message as 400, unauthorized is 401, not found is 404 and
// everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	if ve, ok := common.AsValidation(err); ok {
		writeErrorMessage(w, http.StatusBadRequest, ve.Message)
		return
	}
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	default:
		log.Printf("Internal error: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
