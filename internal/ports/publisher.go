package ports

import (
	"context"

	"applytrack/internal/domain/tracker"
)

// StatusPublisher announces committed status changes to other processes.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, event tracker.StatusChanged) error
	Close() error
}
