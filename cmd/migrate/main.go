package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderly/wanderly/internal/pkg/config"
)

// upFiles are applied in order by "up"; downFiles in order by "down".
var (
	upFiles = []string{
		"migrations/001_init_extensions.sql",
		"migrations/002_places.sql",
	}
	downFiles = []string{
		"migrations/002_places.down.sql",
	}
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("wanderly-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		apply(ctx, pool, upFiles)
	case "down":
		apply(ctx, pool, downFiles)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func apply(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Printf("%d migration files applied", len(files))
}
