// Command jobs inspects and requeues dead jobs.
//
//	go run ./cmd/jobs                       # backlog per queue
//	go run ./cmd/jobs -queue jobs:email     # oldest dead jobs of a queue
//	go run ./cmd/jobs -queue jobs:email -requeue
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ventify/internal/infra"
	"ventify/internal/worker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	queue := flag.String("queue", "", "cola a inspeccionar (jobs:ticket_pdf, jobs:email)")
	limit := flag.Int64("limit", 20, "máximo de entradas a listar")
	requeue := flag.Bool("requeue", false, "reencolar los jobs muertos de -queue")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	_ = godotenv.Load()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rdb, err := infra.NewRedis(ctx, redisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	switch {
	case *queue == "":
		stats, err := worker.DLQStats(ctx, rdb)
		if err != nil {
			log.Fatal().Err(err).Msg("dlq stats")
		}
		for _, q := range worker.Queues {
			fmt.Printf("%-20s %d\n", q, stats[q])
		}
	case *requeue:
		n, err := worker.RequeueDLQ(ctx, rdb, *queue)
		if err != nil {
			log.Fatal().Err(err).Int("requeued", n).Msg("requeue")
		}
		fmt.Printf("%d jobs reencolados en %s\n", n, *queue)
	default:
		entries, err := worker.ListDLQ(ctx, rdb, *queue, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("list dlq")
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s intentos=%d  %s\n", e.FailedAt.Format(time.RFC3339), e.JobType, e.Attempts, e.Reason)
		}
	}
}
