// Import command for loading one attendance sheet from the command line,
// bypassing the HTTP surface. Useful for backfilling a term from archived
// exports.
//
// Usage:
//
//	go run cmd/import/main.go --file session3.xlsx --group cam1 --session 3
//	go run cmd/import/main.go --file midterm.xlsx --group west --session 8 --general-exam --exam-name Midterm
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

func main() {
	file := flag.String("file", "", "Path to the .xlsx sheet (required)")
	group := flag.String("group", "", "Group name (required)")
	session := flag.Int("session", 0, "Session number 1-8 (required)")
	generalExam := flag.Bool("general-exam", false, "Treat the sheet as a general exam sheet")
	lectureName := flag.String("lecture-name", "", "Lecture name to record")
	examName := flag.String("exam-name", "", "Exam name to record")
	flag.Parse()

	if *file == "" || *group == "" {
		log.Fatalf("ERROR: --file and --group are required.")
	}
	if *session < 1 || *session > 8 {
		log.Fatalf("ERROR: --session must be between 1 and 8.")
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

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open sheet: %v", err)
	}
	defer f.Close()

	kind := sheet.KindLecture
	if *generalExam {
		kind = sheet.KindGeneralExam
	}

	records, err := sheet.Parse(f, kind)
	if err != nil {
		log.Fatalf("Failed to parse sheet: %v", err)
	}

	st := store.NewPostgres(conn)
	engine := reconcile.NewEngine(st, cfg.DefaultParentPassword)

	sc := reconcile.SessionContext{
		SessionNumber: *session,
		GroupName:     *group,
		GeneralExam:   *generalExam,
		LectureName:   *lectureName,
		ExamName:      *examName,
	}
	result := engine.Reconcile(context.Background(), sc, records)

	fmt.Printf("Imported %s: %d/%d records landed\n", *file, result.UpdatedCount, result.TotalRecords)
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	if !result.Success() {
		os.Exit(1)
	}
}
