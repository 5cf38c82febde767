package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qrattend/internal/config"
	"qrattend/internal/metrics"
	"qrattend/internal/queue"
	"qrattend/internal/store"
)

// markedEvent mirrors what the API publishes after a successful mark.
type markedEvent struct {
	RecordID  int64 `json:"record_id"`
	SessionID int64 `json:"session_id"`
	StudentID int64 `json:"student_id"`
}

// Worker consumes marked-attendance events for the audit trail and metrics.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "qrattend:marks")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "attendance.marked" {
			continue
		}

		var evt markedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad event body: %v", err)
			continue
		}

		metrics.WorkerEventsTotal.Inc()
		log.Printf("attendance marked: record=%d session=%d student=%d", evt.RecordID, evt.SessionID, evt.StudentID)
	}

	log.Println("worker stopped")
}
