package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"perfection-ops/internal/reconcile"
	"perfection-ops/internal/sheet"
)

const maxUploadBytes = 16 << 20 // 16 MB

// formFlag reads an optional boolean form field; absence means "derive from
// the sheet" rather than false.
func formFlag(r *http.Request, name string) *bool {
	if !r.Form.Has(name) {
		return nil
	}
	v := r.FormValue(name) == "true"
	return &v
}

// uploadRequest is the metadata accompanying a sheet upload.
type uploadRequest struct {
	GroupName   string `validate:"required,oneof=cam1 maimi cam2 west station1 station2 station3"`
	Session     int    `validate:"required,min=1,max=8"`
	GeneralExam bool
	LectureName string
	ExamName    string
}

// POST /api/upload-excel - ingests one attendance sheet for one session
func (h *APIHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	session, err := strconv.Atoi(r.FormValue("session_number"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "session_number must be a number")
		return
	}

	req := uploadRequest{
		GroupName:   r.FormValue("group_name"),
		Session:     session,
		GeneralExam: r.FormValue("is_general_exam") == "true",
		LectureName: strings.TrimSpace(r.FormValue("lecture_name")),
		ExamName:    strings.TrimSpace(r.FormValue("exam_name")),
	}
	if err := h.validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid upload metadata: "+err.Error())
		return
	}

	// quiz_mark is an optional admin override applied to the whole batch.
	var adminQuizMark *float64
	if raw := strings.TrimSpace(r.FormValue("quiz_mark")); raw != "" {
		mark, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "quiz_mark must be a number")
			return
		}
		adminQuizMark = &mark
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		jsonError(w, http.StatusBadRequest, "Only .xlsx files are supported")
		return
	}

	kind := sheet.KindLecture
	if req.GeneralExam {
		kind = sheet.KindGeneralExam
	}

	records, err := sheet.Parse(file, kind)
	if err != nil {
		log.Printf("ERROR: Failed to parse sheet %q: %v", header.Filename, err)
		jsonError(w, http.StatusBadRequest, "Failed to parse sheet: "+err.Error())
		return
	}

	sc := reconcile.SessionContext{
		SessionNumber: req.Session,
		GroupName:     req.GroupName,
		GeneralExam:   req.GeneralExam,
		LectureName:   req.LectureName,
		ExamName:      req.ExamName,
		FinishTime:    sheet.CanonicalizeTimestamp(r.FormValue("finish_time")),
		AdminQuizMark: adminQuizMark,
		HasExamGrade:  formFlag(r, "has_exam_grade"),
		HasPayment:    formFlag(r, "has_payment"),
		HasTime:       formFlag(r, "has_time"),
	}
	result := h.engine.Reconcile(r.Context(), sc, records)

	log.Printf("Upload %q: session %d group %s (%s), %d/%d records landed, %d errors",
		header.Filename, sc.SessionNumber, sc.GroupName, kind, result.UpdatedCount, result.TotalRecords, len(result.Errors))

	status := http.StatusOK
	if !result.Success() {
		status = http.StatusUnprocessableEntity
	}
	jsonResponse(w, status, map[string]interface{}{
		"success":       result.Success(),
		"partial":       result.Partial(),
		"updated_count": result.UpdatedCount,
		"total_records": result.TotalRecords,
		"errors":        result.Errors,
		"error_count":   len(result.Errors),
	})
}
