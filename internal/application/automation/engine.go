package automation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	orderapp "github.com/markethub/backend/internal/application/order"
	"github.com/markethub/backend/internal/domain/automation"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// engineBatchSize caps how many documents one rule pass loads per page
const engineBatchSize = 200

// ProductActions is the slice of the product service the engine uses
type ProductActions interface {
	Update(ctx context.Context, input catalogapp.UpdateProductInput) (*catalogapp.ProductDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status catalog.ProductStatus) (*catalogapp.ProductDTO, error)
}

// OrderActions is the slice of the order service the engine uses
type OrderActions interface {
	SetStatus(ctx context.Context, id uuid.UUID, status order.OrderStatus) (*orderapp.OrderDTO, error)
}

// Alerter raises alerts on behalf of matched rules
type Alerter interface {
	Raise(ctx context.Context, rule string, severity security.Severity, message, dedupKey string) (*security.Alert, bool, error)
}

// Engine evaluates automation rules against product and order documents
// and applies their actions. Each rule runs in isolation; a failing
// rule is recorded and logged, never aborts the pass.
type Engine struct {
	ruleRepo    automation.RuleRepository
	productRepo catalog.ProductRepository
	orderRepo   order.OrderRepository
	products    ProductActions
	orders      OrderActions
	alerter     Alerter
	logger      *zap.Logger
}

// NewEngine creates a new automation engine
func NewEngine(
	ruleRepo automation.RuleRepository,
	productRepo catalog.ProductRepository,
	orderRepo order.OrderRepository,
	products ProductActions,
	orders OrderActions,
	alerter Alerter,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		ruleRepo:    ruleRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		products:    products,
		orders:      orders,
		alerter:     alerter,
		logger:      logger,
	}
}

// RunDue evaluates every enabled interval rule whose interval has
// elapsed. Called by the scheduler tick.
func (e *Engine) RunDue(ctx context.Context, now time.Time) {
	rules, err := e.ruleRepo.FindByTrigger(ctx, automation.TriggerInterval)
	if err != nil {
		e.logger.Error("Failed to load interval rules", zap.Error(err))
		return
	}
	for i := range rules {
		rule := &rules[i]
		if !rule.Due(now) {
			continue
		}
		e.runRule(ctx, rule)
	}
}

// HandleEvent evaluates event-triggered rules against the single
// changed document. Called by the change feed consumer.
func (e *Engine) HandleEvent(ctx context.Context, eventType, entityType string, entityID uuid.UUID) {
	rules, err := e.ruleRepo.FindByEventType(ctx, eventType)
	if err != nil {
		e.logger.Error("Failed to load event rules",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}
	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled || rule.TargetEntity != entityType {
			continue
		}
		doc, err := e.loadDocument(ctx, rule.TargetEntity, entityID)
		if err != nil {
			e.recordRun(ctx, rule, 0, err)
			continue
		}
		matches, err := e.applyToDocuments(ctx, rule, []automation.Document{doc})
		e.recordRun(ctx, rule, matches, err)
	}
}

// RunRule evaluates one rule over all documents of its target entity
func (e *Engine) RunRule(ctx context.Context, id uuid.UUID) (int64, error) {
	rule, err := e.ruleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, shared.NewDomainError("RULE_NOT_FOUND", "Automation rule not found")
		}
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to find rule")
	}
	return e.runRule(ctx, rule), nil
}

func (e *Engine) runRule(ctx context.Context, rule *automation.AutomationRule) int64 {
	docs, err := e.loadDocuments(ctx, rule.TargetEntity)
	if err != nil {
		e.recordRun(ctx, rule, 0, err)
		return 0
	}
	matches, err := e.applyToDocuments(ctx, rule, docs)
	e.recordRun(ctx, rule, matches, err)
	return matches
}

// applyToDocuments matches the rule against each document and applies
// its actions to the matches. Item failures are collected, not fatal.
func (e *Engine) applyToDocuments(ctx context.Context, rule *automation.AutomationRule, docs []automation.Document) (int64, error) {
	conditions, err := rule.Conditions()
	if err != nil {
		return 0, err
	}
	actions, err := rule.Actions()
	if err != nil {
		return 0, err
	}

	var matches int64
	var failures int
	for _, doc := range docs {
		if !automation.MatchAllConditions(conditions, doc) {
			continue
		}
		matches++
		for _, action := range actions {
			if err := e.applyAction(ctx, rule, action, doc); err != nil {
				failures++
				e.logger.Warn("Automation action failed",
					zap.String("rule", rule.Name),
					zap.String("action", string(action.Type)),
					zap.Error(err))
			}
		}
	}
	if failures > 0 {
		return matches, fmt.Errorf("%d action(s) failed", failures)
	}
	return matches, nil
}

func (e *Engine) applyAction(ctx context.Context, rule *automation.AutomationRule, action automation.Action, doc automation.Document) error {
	id, err := documentID(doc)
	if err != nil {
		return err
	}

	switch action.Type {
	case automation.ActionSetStatus:
		status := action.Params["status"]
		if status == "" {
			return shared.NewDomainError("INVALID_ACTION", "set_status requires a status param")
		}
		if rule.TargetEntity == "order" {
			_, err := e.orders.SetStatus(ctx, id, order.OrderStatus(status))
			return err
		}
		_, err := e.products.SetStatus(ctx, id, catalog.ProductStatus(status))
		return err

	case automation.ActionAdjustPricePercent:
		if rule.TargetEntity != "product" {
			return shared.NewDomainError("INVALID_ACTION", "adjust_price_percent only applies to products")
		}
		percent, err := strconv.ParseFloat(action.Params["percent"], 64)
		if err != nil {
			return shared.NewDomainError("INVALID_ACTION", "adjust_price_percent requires a numeric percent param")
		}
		price, ok := doc["price"].(float64)
		if !ok {
			return shared.NewDomainError("INVALID_ACTION", "Document has no price to adjust")
		}
		newPrice := decimal.NewFromFloat(price).
			Mul(decimal.NewFromFloat(1 + percent/100)).
			Round(2)
		_, err = e.products.Update(ctx, catalogapp.UpdateProductInput{ID: id, Price: &newPrice})
		return err

	case automation.ActionSetField:
		if rule.TargetEntity != "product" {
			return shared.NewDomainError("INVALID_ACTION", "set_field only applies to products")
		}
		return e.setProductField(ctx, id, action.Params["field"], action.Params["value"])

	case automation.ActionRaiseAlert:
		severity := security.Severity(action.Params["severity"])
		if severity == "" {
			severity = security.SeverityWarning
		}
		message := action.Params["message"]
		if message == "" {
			message = "Automation rule matched: " + rule.Name
		}
		dedupKey := "automation:" + rule.ID.String() + ":" + id.String()
		_, _, err := e.alerter.Raise(ctx, "automation:"+rule.Name, severity, message, dedupKey)
		return err

	default:
		return shared.NewDomainError("INVALID_ACTION", "Unknown action type: "+string(action.Type))
	}
}

func (e *Engine) setProductField(ctx context.Context, id uuid.UUID, field, value string) error {
	input := catalogapp.UpdateProductInput{ID: id}
	switch field {
	case "name":
		input.Name = &value
	case "description":
		input.Description = &value
	case "attributes":
		input.Attributes = &value
	default:
		return shared.NewDomainError("INVALID_ACTION", "Field is not settable: "+field)
	}
	_, err := e.products.Update(ctx, input)
	return err
}

// loadDocuments pages through all documents for the target entity
func (e *Engine) loadDocuments(ctx context.Context, targetEntity string) ([]automation.Document, error) {
	var docs []automation.Document
	for page := 1; ; page++ {
		filter := shared.Filter{Page: page, PageSize: engineBatchSize}
		filter.Normalize()

		var batch []automation.Document
		switch targetEntity {
		case "product":
			products, err := e.productRepo.FindAll(ctx, filter)
			if err != nil {
				return nil, err
			}
			for i := range products {
				batch = append(batch, ProductDocument(&products[i]))
			}
		case "order":
			orders, err := e.orderRepo.FindAll(ctx, filter)
			if err != nil {
				return nil, err
			}
			for i := range orders {
				batch = append(batch, OrderDocument(&orders[i]))
			}
		default:
			return nil, shared.NewDomainError("INVALID_TARGET", "Unsupported rule target: "+targetEntity)
		}

		docs = append(docs, batch...)
		if len(batch) < engineBatchSize {
			return docs, nil
		}
	}
}

func (e *Engine) loadDocument(ctx context.Context, targetEntity string, id uuid.UUID) (automation.Document, error) {
	switch targetEntity {
	case "product":
		p, err := e.productRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return ProductDocument(p), nil
	case "order":
		o, err := e.orderRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return OrderDocument(o), nil
	default:
		return nil, shared.NewDomainError("INVALID_TARGET", "Unsupported rule target: "+targetEntity)
	}
}

func (e *Engine) recordRun(ctx context.Context, rule *automation.AutomationRule, matches int64, runErr error) {
	rule.RecordRun(matches, runErr)
	if err := e.ruleRepo.Save(ctx, rule); err != nil {
		e.logger.Error("Failed to record rule run",
			zap.String("rule", rule.Name), zap.Error(err))
	}
}

func documentID(doc automation.Document) (uuid.UUID, error) {
	raw, ok := doc["id"].(string)
	if !ok {
		return uuid.Nil, shared.NewDomainError("INVALID_FORMAT", "Document has no id field")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_FORMAT", "Document id is not a UUID")
	}
	return id, nil
}

// ProductDocument projects a product into the flat document the
// condition matcher evaluates
func ProductDocument(p *catalog.Product) automation.Document {
	price, _ := p.Price.Float64()
	margin, _ := p.Margin().Float64()
	doc := automation.Document{
		"id":        p.ID.String(),
		"sku":       p.SKU,
		"name":      p.Name,
		"status":    string(p.Status),
		"price":     price,
		"margin":    margin,
		"stock":     float64(p.StockQuantity),
		"low_stock": strconv.FormatBool(p.IsLowStock()),
	}
	if p.CategoryID != nil {
		doc["category_id"] = p.CategoryID.String()
	}
	return doc
}

// OrderDocument projects an order into the flat document the condition
// matcher evaluates
func OrderDocument(o *order.Order) automation.Document {
	total, _ := o.Total.Float64()
	return automation.Document{
		"id":             o.ID.String(),
		"order_number":   o.OrderNumber,
		"status":         string(o.Status),
		"total":          total,
		"customer_email": o.CustomerEmail,
		"item_count":     float64(len(o.Items)),
		"age_hours":      time.Since(o.CreatedAt).Hours(),
	}
}
