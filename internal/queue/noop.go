package queue

import (
	"context"
	"log/slog"
)

// NewNoOp returns a queue that drops every task. Used when QUEUE_PROVIDER=none.
func NewNoOp(log *slog.Logger) Queue {
	return noopQueue{log: log}
}

type noopQueue struct {
	log *slog.Logger
}

func (q noopQueue) Enqueue(_ context.Context, task Task) error {
	q.log.Debug("queue disabled; dropping task", "type", task.Type)
	return nil
}

func (q noopQueue) Worker(ctx context.Context, _ TaskType, _ Handler) error {
	<-ctx.Done()
	return nil
}
