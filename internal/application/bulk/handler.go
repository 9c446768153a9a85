package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	orderapp "github.com/markethub/backend/internal/application/order"
	"github.com/markethub/backend/internal/domain/bulk"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductActions is the slice of the product service bulk execution uses
type ProductActions interface {
	Update(ctx context.Context, input catalogapp.UpdateProductInput) (*catalogapp.ProductDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status catalog.ProductStatus) (*catalogapp.ProductDTO, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*catalogapp.ProductDTO, error)
}

// OrderActions is the slice of the order service bulk execution uses
type OrderActions interface {
	SetStatus(ctx context.Context, id uuid.UUID, status order.OrderStatus) (*orderapp.OrderDTO, error)
}

// Handler runs bulk operations sequentially. An item failure is
// recorded in the results and the batch continues to the next item.
type Handler struct {
	repo     bulk.OperationRepository
	products ProductActions
	orders   OrderActions
	logger   *zap.Logger
}

// NewHandler creates a new bulk operation handler
func NewHandler(
	repo bulk.OperationRepository,
	products ProductActions,
	orders OrderActions,
	logger *zap.Logger,
) *Handler {
	return &Handler{repo: repo, products: products, orders: orders, logger: logger}
}

// SubmitInput carries a bulk operation request
type SubmitInput struct {
	Action  string      `json:"action" binding:"required"`
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required"`
	Payload string      `json:"payload"`
}

// OperationDTO represents a bulk operation and its outcome
type OperationDTO struct {
	ID           uuid.UUID         `json:"id"`
	Action       string            `json:"action"`
	TargetEntity string            `json:"target_entity"`
	Status       string            `json:"status"`
	TotalCount   int               `json:"total_count"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Results      []bulk.ItemResult `json:"results,omitempty"`
	RequestedBy  string            `json:"requested_by,omitempty"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Submit records the request and executes it synchronously. The
// operation row is persisted before execution so history survives a
// crash mid-batch.
func (h *Handler) Submit(ctx context.Context, input SubmitInput) (*OperationDTO, error) {
	op, err := bulk.NewBulkOperation(bulk.BulkAction(input.Action), input.ItemIDs, input.Payload, appctx.Actor(ctx))
	if err != nil {
		return nil, err
	}
	if err := h.repo.Save(ctx, op); err != nil {
		h.logger.Error("Failed to save bulk operation", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to submit bulk operation")
	}

	h.execute(ctx, op)

	if err := h.repo.Save(ctx, op); err != nil {
		h.logger.Error("Failed to save bulk results", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save bulk results")
	}
	return toOperationDTO(op)
}

// GetByID retrieves a bulk operation with its results
func (h *Handler) GetByID(ctx context.Context, id uuid.UUID) (*OperationDTO, error) {
	op, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("OPERATION_NOT_FOUND", "Bulk operation not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find bulk operation")
	}
	return toOperationDTO(op)
}

// List retrieves bulk operation history
func (h *Handler) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[OperationDTO], error) {
	filter.Normalize()

	ops, err := h.repo.FindAll(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to list bulk operations", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list bulk operations")
	}
	total, err := h.repo.Count(ctx, filter)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list bulk operations")
	}

	dtos := make([]OperationDTO, 0, len(ops))
	for i := range ops {
		dto, err := toOperationDTO(&ops[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (h *Handler) execute(ctx context.Context, op *bulk.BulkOperation) {
	if err := op.Start(); err != nil {
		op.Fail(err.Error())
		return
	}

	ids, err := op.ItemIDs()
	if err != nil {
		op.Fail(err.Error())
		return
	}
	payload, err := decodePayload(op.Payload)
	if err != nil {
		op.Fail(err.Error())
		return
	}

	results := make([]bulk.ItemResult, 0, len(ids))
	for _, id := range ids {
		result := bulk.ItemResult{ItemID: id, Success: true}
		if err := h.applyItem(ctx, op.Action, id, payload); err != nil {
			result.Success = false
			result.Error = err.Error()
			h.logger.Warn("Bulk item failed",
				zap.String("operation_id", op.ID.String()),
				zap.String("item_id", id.String()),
				zap.Error(err))
		}
		results = append(results, result)
	}

	if err := op.Finish(results); err != nil {
		h.logger.Error("Failed to finish bulk operation", zap.Error(err))
	}
}

func (h *Handler) applyItem(ctx context.Context, action bulk.BulkAction, id uuid.UUID, payload map[string]string) error {
	switch action {
	case bulk.ActionProductSetStatus:
		status := payload["status"]
		if status == "" {
			return shared.NewDomainError("INVALID_PAYLOAD", "product_set_status requires a status field")
		}
		_, err := h.products.SetStatus(ctx, id, catalog.ProductStatus(status))
		return err

	case bulk.ActionProductAdjustPrice:
		price, err := decimal.NewFromString(payload["price"])
		if err != nil {
			return shared.NewDomainError("INVALID_PAYLOAD", "product_adjust_price requires a decimal price field")
		}
		_, err = h.products.Update(ctx, catalogapp.UpdateProductInput{ID: id, Price: &price})
		return err

	case bulk.ActionProductAdjustStock:
		delta, err := strconv.Atoi(payload["delta"])
		if err != nil {
			return shared.NewDomainError("INVALID_PAYLOAD", "product_adjust_stock requires an integer delta field")
		}
		_, err = h.products.AdjustStock(ctx, id, delta)
		return err

	case bulk.ActionOrderSetStatus:
		status := payload["status"]
		if status == "" {
			return shared.NewDomainError("INVALID_PAYLOAD", "order_set_status requires a status field")
		}
		_, err := h.orders.SetStatus(ctx, id, order.OrderStatus(status))
		return err

	default:
		return shared.NewDomainError("INVALID_ACTION", "Unsupported bulk action: "+string(action))
	}
}

func decodePayload(raw string) (map[string]string, error) {
	payload := make(map[string]string)
	if raw == "" || raw == "{}" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Payload must be a flat JSON object of strings")
	}
	return payload, nil
}

func toOperationDTO(op *bulk.BulkOperation) (*OperationDTO, error) {
	results, err := op.Results()
	if err != nil {
		return nil, err
	}
	return &OperationDTO{
		ID:           op.ID,
		Action:       string(op.Action),
		TargetEntity: op.TargetEntity,
		Status:       string(op.Status),
		TotalCount:   op.TotalCount,
		SuccessCount: op.SuccessCount,
		FailureCount: op.FailureCount,
		Results:      results,
		RequestedBy:  op.RequestedBy,
		StartedAt:    op.StartedAt,
		FinishedAt:   op.FinishedAt,
		Error:        op.Error,
		CreatedAt:    op.CreatedAt,
	}, nil
}
