package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// Recorder appends change events on behalf of the mutating services.
// Feed writes are best effort: a failed append is logged and never
// fails the calling operation. A nil Recorder is a no-op, which keeps
// service tests free of feed plumbing.
type Recorder struct {
	feed   sync.ChangeFeedRepository
	logger *zap.Logger
}

// NewRecorder creates a change feed recorder
func NewRecorder(feed sync.ChangeFeedRepository, logger *zap.Logger) *Recorder {
	return &Recorder{feed: feed, logger: logger}
}

// Record appends one change event to the feed
func (r *Recorder) Record(ctx context.Context, entityType string, entityID uuid.UUID, op sync.ChangeOp, actor string) {
	if r == nil || r.feed == nil {
		return
	}
	event, err := sync.NewChangeEvent(entityType, entityID, op, actor)
	if err != nil {
		r.logger.Warn("Invalid change event", zap.Error(err))
		return
	}
	if err := r.feed.Append(ctx, event); err != nil {
		r.logger.Warn("Failed to append change event",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}
