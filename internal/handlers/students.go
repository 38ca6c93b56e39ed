package handlers

import (
	"log"
	"net/http"

	"perfection-ops/internal/sheet"
	"perfection-ops/internal/views"
)

// GET /api/students - admin roll-up of every student across sessions
func (h *APIHandler) GetStudents(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.AllRecords(r.Context())
	if err != nil {
		log.Printf("ERROR: Failed to load records: %v", err)
		jsonError(w, http.StatusInternalServerError, "Failed to load students")
		return
	}

	summaries := views.Summarize(records, h.cfg.SessionRate)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"students": summaries,
		"count":    len(summaries),
	})
}

// GET /api/parent/students?phone_number=... - per-student roll-ups for one parent
func (h *APIHandler) GetParentStudents(w http.ResponseWriter, r *http.Request) {
	phone := queryPhone(r)
	if phone == "" {
		jsonError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	records, err := h.store.RecordsByParent(r.Context(), phone, "")
	if err != nil {
		log.Printf("ERROR: Failed to load records for parent %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Failed to load students")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"students": views.Summarize(records, h.cfg.SessionRate),
	})
}

// GET /api/parent/sessions?phone_number=...&student_id=... - session history for one parent
func (h *APIHandler) GetParentSessions(w http.ResponseWriter, r *http.Request) {
	phone := queryPhone(r)
	if phone == "" {
		jsonError(w, http.StatusBadRequest, "phone_number is required")
		return
	}
	studentID := r.URL.Query().Get("student_id")

	records, err := h.store.RecordsByParent(r.Context(), phone, studentID)
	if err != nil {
		log.Printf("ERROR: Failed to load sessions for parent %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Failed to load sessions")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"sessions": views.Sessions(records),
	})
}

// queryPhone reads the parent contact from the query string, accepting the
// short form as a fallback, and normalizes it.
func queryPhone(r *http.Request) string {
	raw := r.URL.Query().Get("phone_number")
	if raw == "" {
		raw = r.URL.Query().Get("phone")
	}
	return sheet.NormalizePhone(raw)
}
