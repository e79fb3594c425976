// Worker ships audit records from the Kafka stream into Loki.
// Requires KAFKA_BROKERS and LOKI_URL; topic and group have config defaults.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"expenditure-workflow/internal/config"
	"expenditure-workflow/internal/telemetry/loki"
)

const pushTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.AuditKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.AuditKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log.Printf("worker: %s (group %s) -> %s", cfg.AuditKafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)
	consume(ctx, reader, cfg.LokiURL)
}

func consume(ctx context.Context, reader *kafka.Reader, lokiURL string) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: shutdown")
				return
			}
			log.Printf("worker: read: %v", err)
			continue
		}
		if err := ship(ctx, lokiURL, msg.Value); err != nil {
			log.Printf("worker: push: %v", err)
		}
	}
}

func ship(ctx context.Context, lokiURL string, record []byte) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	return loki.PushRecordJSON(ctx, lokiURL, record)
}
