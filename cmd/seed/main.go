// Seeder command for populating demo session records for local testing.
//
// SAFETY: This command ONLY runs when:
//   - APP_ENV=development
//   - --confirm flag is provided
//
// Usage:
//
//	APP_ENV=development go run cmd/seed/main.go --students 10 --sessions 4 --confirm
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"perfection-ops/internal/config"
	"perfection-ops/internal/db"
	"perfection-ops/internal/reconcile"
	"perfection-ops/internal/sheet"
	"perfection-ops/internal/store"
)

var names = []string{
	"Ahmed Ali", "Sara Omar", "Omar Adel", "Mona Hassan", "Youssef Tarek",
	"Nour Khaled", "Mariam Samir", "Karim Fathy", "Laila Mostafa", "Hana Ibrahim",
	"Ali Mahmoud", "Farida Nabil", "Ziad Hany", "Salma Ashraf", "Mostafa Gamal",
}

var groups = []string{"cam1", "maimi", "cam2", "west", "station1", "station2", "station3"}

func main() {
	students := flag.Int("students", 10, "Number of students to seed")
	sessions := flag.Int("sessions", 4, "Number of sessions to seed per student")
	confirm := flag.Bool("confirm", false, "Confirm seeding (required)")
	flag.Parse()

	if os.Getenv("APP_ENV") != "development" {
		log.Fatalf("ERROR: Seeder can only run in development environment. Set APP_ENV=development and try again.")
	}
	if !*confirm {
		log.Fatalf("ERROR: --confirm flag is required to run seeder.")
	}
	if *students > len(names) {
		*students = len(names)
	}
	if *sessions > 8 {
		*sessions = 8
	}

	cfg := config.Load()
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(conn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.NewPostgres(conn)
	engine := reconcile.NewEngine(st, cfg.DefaultParentPassword)
	ctx := context.Background()

	log.Printf("SEEDER: Inserting %d students x %d sessions", *students, *sessions)

	for session := 1; session <= *sessions; session++ {
		var records []sheet.Record
		for i := 0; i < *students; i++ {
			rec := sheet.Record{
				StudentID:   fmt.Sprintf("%d", 1000+i),
				StudentName: names[i],
				ParentNo:    fmt.Sprintf("010%08d", 10000000+i),
				// Leave a few gaps so the dashboards have something to show.
				Attended:       (i+session)%5 != 0,
				HasPayment:     true,
				Quiz:           float64(7 + (i+session)%9),
				HasQuiz:        (i+session)%3 != 0,
				HomeworkStatus: (i + session) % 4,
			}
			if (i+session)%4 != 0 {
				rec.Payment = 140
			}
			records = append(records, rec)
		}

		sc := reconcile.SessionContext{
			SessionNumber: session,
			GroupName:     groups[session%len(groups)],
			LectureName:   fmt.Sprintf("Lecture %d", session),
		}
		result := engine.Reconcile(ctx, sc, records)
		log.Printf("SEEDER: session %d: %d/%d landed, %d errors",
			session, result.UpdatedCount, result.TotalRecords, len(result.Errors))
	}

	log.Printf("SEEDER: Done.")
}
