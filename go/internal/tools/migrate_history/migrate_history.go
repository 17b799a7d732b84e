package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/mailagent/go/internal/dbconfig"
	"github.com/mcdev12/mailagent/go/internal/delivery/history"
)

func main() {
	retain := flag.Duration("retain", 0, "delete ledger rows fired longer ago than this (0 keeps everything)")
	flag.Parse()

	ctx := context.Background()

	// 1) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	if !cfg.Enabled() {
		fmt.Fprintln(os.Stderr, "set DATABASE_URL or DB_HOST")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2) Apply schema
	if _, err := pool.Exec(ctx, history.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Optional retention sweep
	var deleted int64
	if *retain > 0 {
		tag, err := pool.Exec(ctx,
			`DELETE FROM email_delivery_log WHERE fired_at < $1`,
			time.Now().Add(-*retain),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retention sweep: %v\n", err)
			os.Exit(1)
		}
		deleted = tag.RowsAffected()
	}

	// 4) Print summary
	var total int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM email_delivery_log`).Scan(&total); err != nil {
		fmt.Fprintf(os.Stderr, "count rows: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Delivery ledger ready: %d rows, %d deleted by retention\n", total, deleted)
}
