package handlers

import (
	"context"
	"log"
	"net/http"
)

// Pinger reports whether a backing store connection is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsStore counts the stored users and file records.
type StatsStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

// AppHandler serves the health and stats endpoints
type AppHandler struct {
	redis Pinger
	db    Pinger
	stats StatsStore
}

// NewAppHandler creates a new app handler
func NewAppHandler(redis, db Pinger, stats StatsStore) *AppHandler {
	return &AppHandler{redis: redis, db: db, stats: stats}
}

// Status handles GET /status
func (ah *AppHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, map[string]bool{
		"redis": ah.redis.Ping(ctx) == nil,
		"db":    ah.db.Ping(ctx) == nil,
	})
}

// Stats handles GET /stats
func (ah *AppHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := ah.stats.CountUsers(ctx)
	if err != nil {
		log.Printf("Error fetching stats: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	files, err := ah.stats.CountFiles(ctx)
	if err != nil {
		log.Printf("Error fetching stats: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"users": users,
		"files": files,
	})
}
