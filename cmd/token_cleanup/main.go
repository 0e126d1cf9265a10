// Command token_cleanup deletes expired revocation entries. Entries whose
// token is past its own exp claim are dead weight: the codec already rejects
// those tokens, the blacklist row only costs space.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"accountsvc/internal/database"
	"accountsvc/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be deleted without deleting")
	flag.Parse()

	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	repo := repository.NewRevocationRepository(db)
	ctx := context.Background()
	now := time.Now()

	if *dryRun {
		count, err := repo.CountExpired(ctx, now)
		if err != nil {
			log.Fatalf("count expired failed: %v", err)
		}
		if count == 0 {
			log.Print("no expired revocation entries to clean up")
			return
		}
		log.Printf("[dry run] would delete %d expired revocation entries", count)
		return
	}

	deleted, err := repo.SweepExpired(ctx, now)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	remaining, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("count failed: %v", err)
	}

	log.Printf("revocation sweep completed: deleted=%d remaining=%d", deleted, remaining)
}
