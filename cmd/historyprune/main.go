package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// historyprune deletes generation-history rows older than a retention window.
// The API process runs the same sweep daily; this tool exists for manual and
// scheduled out-of-band cleanup.
func main() {
	var (
		daysFlag   int
		dryRunFlag bool
	)

	flag.IntVar(&daysFlag, "days", 30, "delete generation rows older than this many days")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "count matching rows without deleting them")
	flag.Parse()

	if daysFlag <= 0 {
		exitWithError(errors.New("-days must be positive"))
	}

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	cutoff := time.Now().AddDate(0, 0, -daysFlag)

	if dryRunFlag {
		var count int64
		err := db.QueryRowContext(ctx,
			`select count(*) from generations where created_at < $1`, cutoff,
		).Scan(&count)
		if err != nil {
			exitWithError(fmt.Errorf("count rows: %w", err))
		}
		fmt.Printf("would delete %d generation rows older than %s\n", count, cutoff.Format(time.RFC3339))
		return
	}

	res, err := db.ExecContext(ctx,
		`delete from generations where created_at < $1`, cutoff,
	)
	if err != nil {
		exitWithError(fmt.Errorf("delete rows: %w", err))
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		exitWithError(fmt.Errorf("rows affected: %w", err))
	}
	fmt.Printf("deleted %d generation rows older than %s\n", deleted, cutoff.Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
