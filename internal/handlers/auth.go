package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"perfection-ops/internal/middleware"
	"perfection-ops/internal/models"
	"perfection-ops/internal/sheet"

	"golang.org/x/crypto/bcrypt"
)

// POST /api/auth/login - parent login by phone number. An unknown phone gets
// an account created on the spot, flagged for a password reset, so parents
// can sign in as soon as their child appears on any sheet.
func (h *APIHandler) ParentLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	phone := sheet.NormalizePhone(req.Phone)
	if phone == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "phone and password are required")
		return
	}

	parent, err := h.store.ParentByPhone(r.Context(), phone)
	if err != nil {
		log.Printf("ERROR: Parent lookup failed for %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if parent == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash password: %v", err)
			jsonError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		parent = &models.Parent{
			PhoneNumber:        phone,
			PasswordHash:       string(hash),
			NeedsPasswordReset: true,
		}
		if err := h.store.CreateParent(r.Context(), parent); err != nil {
			log.Printf("ERROR: Failed to create parent account for %s: %v", phone, err)
			jsonError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		log.Printf("Created parent account for %s on first login", phone)
	} else if bcrypt.CompareHashAndPassword([]byte(parent.PasswordHash), []byte(req.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid phone or password")
		return
	}

	if err := h.store.TouchParentLogin(r.Context(), phone); err != nil {
		log.Printf("WARNING: Failed to record login for %s: %v", phone, err)
	}

	cookie, err := middleware.CreateSessionCookie(phone, middleware.RoleParent, h.cfg.SessionSecret)
	if err != nil {
		log.Printf("ERROR: Failed to create session: %v", err)
		jsonError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	http.SetCookie(w, cookie)

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"phone":                phone,
		"needs_password_reset": parent.NeedsPasswordReset,
	})
}

// POST /api/auth/reset-password - first-login password change for parents
func (h *APIHandler) ParentResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone       string `json:"phone"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	phone := sheet.NormalizePhone(req.Phone)
	if phone == "" {
		jsonError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if len(req.NewPassword) < 6 {
		jsonError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	parent, err := h.store.ParentByPhone(r.Context(), phone)
	if err != nil {
		log.Printf("ERROR: Parent lookup failed for %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Reset failed")
		return
	}
	if parent == nil {
		jsonError(w, http.StatusNotFound, "No account for this phone number")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, "Reset failed")
		return
	}
	if err := h.store.UpdateParentPassword(r.Context(), phone, string(hash), false); err != nil {
		log.Printf("ERROR: Failed to update password for %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Reset failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/auth/change-password - parent password change with old password
func (h *APIHandler) ParentChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone       string `json:"phone"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	phone := sheet.NormalizePhone(req.Phone)
	if phone == "" {
		jsonError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if len(req.NewPassword) < 6 {
		jsonError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	parent, err := h.store.ParentByPhone(r.Context(), phone)
	if err != nil {
		log.Printf("ERROR: Parent lookup failed for %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}
	if parent == nil || bcrypt.CompareHashAndPassword([]byte(parent.PasswordHash), []byte(req.OldPassword)) != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid phone or password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}
	if err := h.store.UpdateParentPassword(r.Context(), phone, string(hash), false); err != nil {
		log.Printf("ERROR: Failed to update password for %s: %v", phone, err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/admin/login
func (h *APIHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	admin, err := h.store.AdminByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("ERROR: Admin lookup failed for %s: %v", req.Username, err)
		jsonError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	cookie, err := middleware.CreateSessionCookie(admin.Username, middleware.RoleAdmin, h.cfg.SessionSecret)
	if err != nil {
		log.Printf("ERROR: Failed to create session: %v", err)
		jsonError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	http.SetCookie(w, cookie)

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"username": admin.Username,
	})
}

// POST /api/admin/change-password - requires an admin session
func (h *APIHandler) AdminChangePassword(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUser(r)
	if username == "" {
		jsonError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 6 {
		jsonError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	admin, err := h.store.AdminByUsername(r.Context(), username)
	if err != nil {
		log.Printf("ERROR: Admin lookup failed for %s: %v", username, err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.OldPassword)) != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}
	if err := h.store.UpdateAdminPassword(r.Context(), username, string(hash)); err != nil {
		log.Printf("ERROR: Failed to update password for %s: %v", username, err)
		jsonError(w, http.StatusInternalServerError, "Change failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/admin/logout
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, middleware.ClearSessionCookie())
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
