package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

func main() {
	addAdminCmd := flag.NewFlagSet("add-admin", flag.ExitOnError)
	name := addAdminCmd.String("name", "", "Display name for the new admin")
	email := addAdminCmd.String("email", "", "Email the login links go to")
	password := addAdminCmd.String("password", "", "Optional bootstrap password (magic link works without one)")

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "add-admin":
		addAdminCmd.Parse(os.Args[2:])
		if *name == "" || *email == "" {
			fmt.Println("name and email are required")
			addAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		addAdmin(*name, *email, *password)
	case "cleanup-sessions":
		cleanupSessions()
	case "backfill-numbers":
		backfillNumbers()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("expected 'add-admin', 'cleanup-sessions' or 'backfill-numbers' subcommand")
	os.Exit(1)
}

func openStore() *store.Store {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./vurmz.db"
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure schema exists if running cli before the server.
	if err := db.Migrate("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func addAdmin(name, email, password string) {
	db := openStore()

	var hashed string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		hashed = string(h)
	}

	if err := db.CreateAdmin(context.Background(), name, email, hashed); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin '%s' <%s> created successfully.\n", name, email)
}

func cleanupSessions() {
	db := openStore()

	n, err := db.DeleteExpiredSessions(context.Background(), time.Now())
	if err != nil {
		log.Fatalf("Failed to delete expired sessions: %v", err)
	}

	fmt.Printf("Deleted %d expired session(s).\n", n)
}

// backfillNumbers mirrors order numbers onto quotes promoted before
// the quote-side copy existed, so the month-sequence scan sees them.
func backfillNumbers() {
	db := openStore()

	n, err := db.BackfillQuoteNumbers(context.Background())
	if err != nil {
		log.Fatalf("Failed to backfill quote numbers: %v", err)
	}

	fmt.Printf("Backfilled %d quote number(s).\n", n)
}
