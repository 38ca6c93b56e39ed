package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"perfection-ops/internal/config"
	"perfection-ops/internal/db"
	"perfection-ops/internal/handlers"
	"perfection-ops/internal/middleware"
	"perfection-ops/internal/models"
	"perfection-ops/internal/reconcile"
	"perfection-ops/internal/store"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	// Connect to database
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(conn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.NewPostgres(conn)

	// Seed admin user if it doesn't exist
	if err := seedAdmin(cfg, st); err != nil {
		log.Printf("WARNING: Failed to seed admin user: %v", err)
	}

	engine := reconcile.NewEngine(st, cfg.DefaultParentPassword)
	api := handlers.NewAPIHandler(cfg, st, engine)

	requireAdmin := middleware.RequireAdmin(cfg.SessionSecret)

	mux := http.NewServeMux()

	requestLogMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cfg.Debugf("REQUEST: %s %s", r.Method, r.URL.Path)
			next(w, r)
		}
	}

	get := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}
	post := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}

	// Public routes
	mux.HandleFunc("/api/health", requestLogMiddleware(get(api.Health)))
	mux.HandleFunc("/api/groups", requestLogMiddleware(get(api.GetGroups)))
	mux.HandleFunc("/api/sessions", requestLogMiddleware(get(api.GetSessions)))
	mux.HandleFunc("/api/auth/login", requestLogMiddleware(post(api.ParentLogin)))
	mux.HandleFunc("/api/auth/reset-password", requestLogMiddleware(post(api.ParentResetPassword)))
	mux.HandleFunc("/api/auth/change-password", requestLogMiddleware(post(api.ParentChangePassword)))
	mux.HandleFunc("/api/admin/login", requestLogMiddleware(post(api.AdminLogin)))
	mux.HandleFunc("/api/admin/logout", requestLogMiddleware(post(api.Logout)))

	// Parent routes
	mux.HandleFunc("/api/parent/students", requestLogMiddleware(get(api.GetParentStudents)))
	mux.HandleFunc("/api/parent/sessions", requestLogMiddleware(get(api.GetParentSessions)))

	// Admin routes
	mux.HandleFunc("/api/upload-excel", requestLogMiddleware(post(requireAdmin(api.UploadExcel))))
	mux.HandleFunc("/api/students", requestLogMiddleware(get(requireAdmin(api.GetStudents))))
	mux.HandleFunc("/api/admin/change-password", requestLogMiddleware(post(requireAdmin(api.AdminChangePassword))))

	port := cfg.Port
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func seedAdmin(cfg *config.Config, st store.Store) error {
	ctx := context.Background()

	existing, err := st.AdminByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := st.CreateAdmin(ctx, &models.Admin{
		Username:     cfg.AdminUsername,
		PasswordHash: string(hashedPassword),
	}); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("Created default admin user: %s", cfg.AdminUsername)
	return nil
}
