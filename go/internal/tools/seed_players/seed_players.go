package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/auctionwheel/go/internal/catalog"
	"github.com/mcdev12/auctionwheel/go/internal/dbconfig"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS auction_players (
	  name       TEXT PRIMARY KEY,
	  position   TEXT NOT NULL,
	  base_price INTEGER NOT NULL CHECK (base_price > 0)
	)
`

func main() {
	ctx := context.Background()

	path := "go/internal/assets/players.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load and validate the catalog file
	items, err := catalog.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}
	items = catalog.Dedupe(items)

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createTable); err != nil {
		fmt.Fprintf(os.Stderr, "create auction_players: %v\n", err)
		os.Exit(1)
	}

	// 3) Seed players
	total, inserted, skipped, errs := len(items), 0, 0, 0
	for _, it := range items {
		tag, err := pool.Exec(ctx, `
            INSERT INTO auction_players (name, position, base_price)
            VALUES ($1,$2,$3)
            ON CONFLICT (name) DO NOTHING
        `, it.Name, it.Category, it.BasePrice)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	fmt.Printf(
		"Auction players seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)
}
