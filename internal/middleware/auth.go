package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const UserKey contextKey = "user"
const RoleKey contextKey = "role"

const SessionCookieName = "perfection_session"

const RoleAdmin = "admin"
const RoleParent = "parent"

// CreateSessionCookie signs an identity into an HMAC session cookie. The user
// field is an admin username or a parent phone number depending on role.
func CreateSessionCookie(user, role, secret string) (*http.Cookie, error) {
	value := fmt.Sprintf("%s|%s|%d", user, role, time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	cookieValue := fmt.Sprintf("%s|%s", value, signature)

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7, // 7 days
	}

	return cookie, nil
}

// ClearSessionCookie returns an expired cookie that removes the session.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
}

func ValidateSessionCookie(cookie *http.Cookie, secret string) (user, role string, err error) {
	if cookie == nil {
		return "", "", fmt.Errorf("no session cookie")
	}

	parts := strings.Split(cookie.Value, "|")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid session format")
	}

	value := strings.Join(parts[:3], "|")
	signature := parts[3]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	expectedSignature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return "", "", fmt.Errorf("invalid session signature")
	}

	return parts[0], parts[1], nil
}

func RequireAuth(next http.HandlerFunc, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			unauthorized(w)
			return
		}

		user, role, err := ValidateSessionCookie(cookie, secret)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		ctx = context.WithValue(ctx, RoleKey, role)

		next(w, r.WithContext(ctx))
	}
}

// RequireRole ensures the authenticated session carries one of the roles.
func RequireRole(allowedRoles []string, secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r)
			for _, allowed := range allowedRoles {
				if role == allowed {
					next(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"error":"Forbidden: Insufficient permissions"}`)
		}, secret)
	}
}

// RequireAdmin guards the admin-only surface.
func RequireAdmin(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return RequireRole([]string{RoleAdmin}, secret)
}

func GetUser(r *http.Request) string {
	if val := r.Context().Value(UserKey); val != nil {
		return val.(string)
	}
	return ""
}

func GetRole(r *http.Request) string {
	if val := r.Context().Value(RoleKey); val != nil {
		return val.(string)
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintln(w, `{"error":"Not authenticated"}`)
}
