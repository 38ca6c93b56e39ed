package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"perfection-ops/internal/config"
	"perfection-ops/internal/reconcile"
	"perfection-ops/internal/store"

	"github.com/go-playground/validator/v10"
)

// Groups are the fixed center locations sessions run in.
var Groups = []string{"cam1", "maimi", "cam2", "west", "station1", "station2", "station3"}

// SessionCount is how many sessions a term has.
const SessionCount = 8

type APIHandler struct {
	cfg      *config.Config
	store    store.Store
	engine   *reconcile.Engine
	validate *validator.Validate
}

func NewAPIHandler(cfg *config.Config, st store.Store, engine *reconcile.Engine) *APIHandler {
	return &APIHandler{
		cfg:      cfg,
		store:    st,
		engine:   engine,
		validate: validator.New(),
	}
}

// JSON response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: Failed to encode JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// GET /api/health - liveness probe
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/groups - returns the known group names
func (h *APIHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{"groups": Groups})
}

// GET /api/sessions - returns the valid session numbers
func (h *APIHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions := make([]int, 0, SessionCount)
	for i := 1; i <= SessionCount; i++ {
		sessions = append(sessions, i)
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
