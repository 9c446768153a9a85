package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// ChangeOp is the kind of mutation that produced a change event
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent is one row in the append-only change feed. Seq is
// assigned by the database (bigserial) and defines feed order.
type ChangeEvent struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	EntityType string    `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`
	Op         ChangeOp  `gorm:"type:varchar(10);not null" json:"op"`
	Actor      string    `gorm:"type:varchar(100)" json:"actor,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName returns the table name for GORM
func (ChangeEvent) TableName() string {
	return "change_events"
}

// NewChangeEvent creates a feed entry. Seq stays zero until insert.
func NewChangeEvent(entityType string, entityID uuid.UUID, op ChangeOp, actor string) (*ChangeEvent, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "Change event entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EVENT", "Change event entity ID cannot be empty")
	}
	switch op {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return nil, shared.NewDomainError("INVALID_EVENT", "Unknown change op: "+string(op))
	}

	return &ChangeEvent{
		EntityType: entityType,
		EntityID:   entityID,
		Op:         op,
		Actor:      actor,
		CreatedAt:  time.Now(),
	}, nil
}

// ChangeFeedRepository is the append-only persistence for change events
type ChangeFeedRepository interface {
	Append(ctx context.Context, event *ChangeEvent) error
	// FindAfter returns up to limit events with Seq greater than afterSeq,
	// ordered by Seq ascending
	FindAfter(ctx context.Context, afterSeq int64, limit int) ([]ChangeEvent, error)
	// LatestSeq returns the highest Seq in the feed, zero when empty
	LatestSeq(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
