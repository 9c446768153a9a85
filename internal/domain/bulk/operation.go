package bulk

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// OperationStatus is the execution state of a bulk operation
type OperationStatus string

const (
	StatusPending             OperationStatus = "pending"
	StatusRunning             OperationStatus = "running"
	StatusCompleted           OperationStatus = "completed"
	StatusCompletedWithErrors OperationStatus = "completed_with_errors"
	StatusFailed              OperationStatus = "failed"
)

// BulkAction identifies what the operation does to each item
type BulkAction string

const (
	ActionProductSetStatus   BulkAction = "product_set_status"
	ActionProductAdjustPrice BulkAction = "product_adjust_price"
	ActionProductAdjustStock BulkAction = "product_adjust_stock"
	ActionOrderSetStatus     BulkAction = "order_set_status"
)

var validBulkActions = map[BulkAction]string{
	ActionProductSetStatus:   "product",
	ActionProductAdjustPrice: "product",
	ActionProductAdjustStock: "product",
	ActionOrderSetStatus:     "order",
}

// ItemResult records the outcome for a single item in the batch
type ItemResult struct {
	ItemID  uuid.UUID `json:"item_id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// BulkOperation records a batch request and its per-item outcomes.
// Execution is sequential; an item failure is recorded and the batch
// continues.
type BulkOperation struct {
	shared.BaseAggregateRoot
	Action       BulkAction      `gorm:"type:varchar(40);not null;index"`
	TargetEntity string          `gorm:"type:varchar(30);not null"`
	ItemIDsJSON  string          `gorm:"type:jsonb;column:item_ids;default:'[]'"`
	Payload      string          `gorm:"type:jsonb;default:'{}'"`
	ResultsJSON  string          `gorm:"type:jsonb;column:results;default:'[]'"`
	Status       OperationStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	TotalCount   int             `gorm:"not null;default:0"`
	SuccessCount int             `gorm:"not null;default:0"`
	FailureCount int             `gorm:"not null;default:0"`
	RequestedBy  string          `gorm:"type:varchar(100)"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	Error        string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BulkOperation) TableName() string {
	return "bulk_operations"
}

// NewBulkOperation creates a pending operation over an explicit item list
func NewBulkOperation(action BulkAction, itemIDs []uuid.UUID, payload string, requestedBy string) (*BulkOperation, error) {
	target, ok := validBulkActions[action]
	if !ok {
		return nil, shared.NewDomainError("INVALID_ACTION", "Unsupported bulk action: "+string(action))
	}
	if len(itemIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Bulk operation requires at least one item")
	}
	if payload == "" {
		payload = "{}"
	}
	if !json.Valid([]byte(payload)) {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Payload must be valid JSON")
	}

	ids, err := json.Marshal(itemIDs)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Item IDs cannot be serialized")
	}

	return &BulkOperation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Action:            action,
		TargetEntity:      target,
		ItemIDsJSON:       string(ids),
		Payload:           payload,
		ResultsJSON:       "[]",
		Status:            StatusPending,
		TotalCount:        len(itemIDs),
		RequestedBy:       requestedBy,
	}, nil
}

// ItemIDs decodes the requested item list
func (b *BulkOperation) ItemIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(b.ItemIDsJSON), &ids); err != nil {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Stored item IDs are corrupted")
	}
	return ids, nil
}

// Results decodes the per-item outcomes
func (b *BulkOperation) Results() ([]ItemResult, error) {
	var results []ItemResult
	if err := json.Unmarshal([]byte(b.ResultsJSON), &results); err != nil {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Stored results are corrupted")
	}
	return results, nil
}

// Start moves the operation to running
func (b *BulkOperation) Start() error {
	if b.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending operations can start")
	}
	now := time.Now()
	b.Status = StatusRunning
	b.StartedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
	return nil
}

// Finish records all per-item results and derives the final status
func (b *BulkOperation) Finish(results []ItemResult) error {
	if b.Status != StatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only running operations can finish")
	}

	success, failure := 0, 0
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return shared.NewDomainError("INVALID_FORMAT", "Results cannot be serialized")
	}

	now := time.Now()
	b.ResultsJSON = string(raw)
	b.SuccessCount = success
	b.FailureCount = failure
	b.FinishedAt = &now
	switch {
	case failure == 0:
		b.Status = StatusCompleted
	case success == 0:
		b.Status = StatusFailed
	default:
		b.Status = StatusCompletedWithErrors
	}
	b.UpdatedAt = now
	b.IncrementVersion()
	return nil
}

// Fail marks the whole operation failed before any item ran
func (b *BulkOperation) Fail(message string) {
	now := time.Now()
	b.Status = StatusFailed
	b.Error = message
	b.FinishedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
}

// IsFinished reports whether execution is over
func (b *BulkOperation) IsFinished() bool {
	return b.Status == StatusCompleted || b.Status == StatusCompletedWithErrors || b.Status == StatusFailed
}

// OperationRepository defines persistence for bulk operation history
type OperationRepository interface {
	shared.Repository[BulkOperation]

	FindByStatus(ctx context.Context, status OperationStatus, filter shared.Filter) (shared.Paginated[BulkOperation], error)
	FindRecent(ctx context.Context, limit int) ([]BulkOperation, error)
}
