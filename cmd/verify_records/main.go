// Verification command for checking stored session records after a batch of
// uploads: flags students whose records carry more than one identifier,
// parent contacts with records but no account, and name variants that the
// normalizer maps to the same student.
//
// Usage:
//
//	go run cmd/verify_records/main.go
package main

import (
	"context"
	"fmt"
	"log"

	"perfection-ops/internal/config"
	"perfection-ops/internal/db"
	"perfection-ops/internal/sheet"
	"perfection-ops/internal/store"
)

func main() {
	cfg := config.Load()
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	st := store.NewPostgres(conn)
	ctx := context.Background()

	records, err := st.AllRecords(ctx)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	fmt.Printf("Checking %d session records\n\n", len(records))

	// Students known under more than one identifier.
	idsByName := make(map[string]map[string]bool)
	namesByKey := make(map[string]map[string]bool)
	parents := make(map[string]bool)
	for _, r := range records {
		key := sheet.NormalizeName(r.StudentName)
		if idsByName[key] == nil {
			idsByName[key] = make(map[string]bool)
			namesByKey[key] = make(map[string]bool)
		}
		idsByName[key][r.StudentID] = true
		namesByKey[key][r.StudentName] = true
		parents[r.ParentNo] = true
	}

	churned := 0
	for key, ids := range idsByName {
		if len(ids) > 1 {
			churned++
			fmt.Printf("MULTIPLE IDS: %q has %d identifiers: %v\n", key, len(ids), keys(ids))
		}
	}
	if churned == 0 {
		fmt.Println("OK: every student maps to a single identifier")
	}

	restyled := 0
	for key, names := range namesByKey {
		if len(names) > 1 {
			restyled++
			fmt.Printf("NAME VARIANTS: %q appears as %v\n", key, keys(names))
		}
	}
	if restyled == 0 {
		fmt.Println("OK: no restyled name variants")
	}

	// Parent contacts that should have had accounts lazily created.
	missing := 0
	for phone := range parents {
		if phone == "" {
			continue
		}
		parent, err := st.ParentByPhone(ctx, phone)
		if err != nil {
			log.Fatalf("Parent lookup failed for %s: %v", phone, err)
		}
		if parent == nil {
			missing++
			fmt.Printf("NO ACCOUNT: parent %s has records but no login account\n", phone)
		}
	}
	if missing == 0 {
		fmt.Println("OK: every parent contact has an account")
	}

	fmt.Printf("\nDone: %d students, %d parents, %d with id churn, %d with name variants, %d without accounts\n",
		len(idsByName), len(parents), churned, restyled, missing)
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
