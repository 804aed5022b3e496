// Command activity-consumer drains the card.events queue and appends one
// line per card mutation to logs/card-activity.log.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/queue"
)

func main() {
	_ = godotenv.Load()
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		log.Fatal("missing required env var: RABBITMQ_URL")
	}
	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), "activity-consumer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(url, logger)
	if p := os.Getenv("CARD_ACTIVITY_LOG"); p != "" {
		c.LogPath = p
	}
	logger.Info("consuming", "queue", c.Queue, "log_path", c.LogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
