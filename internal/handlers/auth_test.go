package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"perfection-ops/internal/middleware"
	"perfection-ops/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestParentLoginCreatesAccount(t *testing.T) {
	h, mem := newTestHandler(t)

	rr := postJSON(t, h.ParentLogin, "/api/auth/login", `{"phone":"+201012345678","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Success            bool   `json:"success"`
		Phone              string `json:"phone"`
		NeedsPasswordReset bool   `json:"needs_password_reset"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || !body.NeedsPasswordReset {
		t.Errorf("body = %+v, want success with reset flag", body)
	}
	if body.Phone != "01012345678" {
		t.Errorf("phone = %q, want normalized local form", body.Phone)
	}

	parent, err := mem.ParentByPhone(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "01012345678")
	if err != nil {
		t.Fatal(err)
	}
	if parent == nil {
		t.Fatal("account not created")
	}
	if bcrypt.CompareHashAndPassword([]byte(parent.PasswordHash), []byte("secret")) != nil {
		t.Error("stored hash does not match submitted password")
	}
}

func TestParentLoginWrongPassword(t *testing.T) {
	h, mem := newTestHandler(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
	if err := mem.CreateParent(ctx, &models.Parent{PhoneNumber: "01012345678", PasswordHash: string(hash)}); err != nil {
		t.Fatal(err)
	}

	rr := postJSON(t, h.ParentLogin, "/api/auth/login", `{"phone":"01012345678","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestParentResetPassword(t *testing.T) {
	h, mem := newTestHandler(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	if err := mem.CreateParent(ctx, &models.Parent{
		PhoneNumber:        "01012345678",
		PasswordHash:       string(hash),
		NeedsPasswordReset: true,
	}); err != nil {
		t.Fatal(err)
	}

	rr := postJSON(t, h.ParentResetPassword, "/api/auth/reset-password", `{"phone":"01012345678","new_password":"short"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rr.Code)
	}

	rr = postJSON(t, h.ParentResetPassword, "/api/auth/reset-password", `{"phone":"01012345678","new_password":"newsecret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	parent, err := mem.ParentByPhone(ctx, "01012345678")
	if err != nil {
		t.Fatal(err)
	}
	if parent.NeedsPasswordReset {
		t.Error("reset flag not cleared")
	}
	if bcrypt.CompareHashAndPassword([]byte(parent.PasswordHash), []byte("newsecret")) != nil {
		t.Error("new password not stored")
	}
}

func TestAdminLoginSetsSessionCookie(t *testing.T) {
	h, mem := newTestHandler(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	hash, _ := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.DefaultCost)
	if err := mem.CreateAdmin(ctx, &models.Admin{Username: "admin", PasswordHash: string(hash)}); err != nil {
		t.Fatal(err)
	}

	rr := postJSON(t, h.AdminLogin, "/api/admin/login", `{"username":"admin","password":"adminpass"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie set")
	}

	user, role, err := middleware.ValidateSessionCookie(sessionCookie, "test-secret")
	if err != nil {
		t.Fatalf("cookie does not validate: %v", err)
	}
	if user != "admin" || role != middleware.RoleAdmin {
		t.Errorf("session = (%q, %q), want admin identity", user, role)
	}

	rr = postJSON(t, h.AdminLogin, "/api/admin/login", `{"username":"admin","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rr.Code)
	}
}
