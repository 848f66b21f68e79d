package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"loveletter/internal/app"
	"loveletter/internal/httputil"
	"loveletter/internal/queue"
	"loveletter/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.BuildNotifier(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close dependencies", "err", err)
		}
	}()
	deps.Log.Info("notifier starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeContactNotify, func(ctx context.Context, task queue.Task) error {
			return handleNotify(ctx, deps.Store, deps.Log, task)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.HealthPort, "notifier")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("notifier stopped", "err", err)
	}
}

// handleNotify delivers one contact message to the team. Delivery is a
// structured log entry; the message is then marked delivered.
func handleNotify(ctx context.Context, st store.Store, log *slog.Logger, task queue.Task) error {
	var payload queue.ContactNotifyPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		// Malformed payloads never succeed; drop them instead of retrying.
		log.Error("dropping malformed notify task", "task_id", task.ID, "err", err)
		return nil
	}

	msg, err := st.GetContactMessage(ctx, payload.MessageID)
	if errors.Is(err, store.ErrMessageNotFound) {
		log.Warn("contact message vanished before delivery", "message_id", payload.MessageID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load contact message: %w", err)
	}
	if msg.Status == store.StatusDelivered {
		return nil
	}

	log.Info("contact message",
		"message_id", msg.ID,
		"name", msg.Name,
		"email", msg.Email,
		"body", msg.Body,
		"received_at", msg.CreatedAt,
		"attempt", task.Attempts+1,
	)

	if err := st.UpdateContactStatus(ctx, msg.ID, store.StatusDelivered); err != nil {
		return fmt.Errorf("mark contact message delivered: %w", err)
	}
	return nil
}
