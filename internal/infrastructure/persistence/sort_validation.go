package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"status":        true,
	"last_login_at": true,
}

// RoleSortFields contains allowed sort fields for roles
var RoleSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"is_system":  true,
	"enabled":    true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"sku":                 true,
	"name":                true,
	"category_id":         true,
	"status":              true,
	"price":               true,
	"cost":                true,
	"stock_quantity":      true,
	"low_stock_threshold": true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"slug":       true,
	"name":       true,
	"sort_order": true,
	"enabled":    true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"order_number":   true,
	"customer_name":  true,
	"customer_email": true,
	"status":         true,
	"total":          true,
	"paid_at":        true,
	"completed_at":   true,
}

// IntegrationSortFields contains allowed sort fields for integrations
var IntegrationSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"provider":     true,
	"status":       true,
	"last_sync_at": true,
	"sync_count":   true,
}

// ScreenConfigSortFields contains allowed sort fields for mobile screen configs
var ScreenConfigSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"screen_key":        true,
	"title":             true,
	"status":            true,
	"published_version": true,
	"published_at":      true,
}

// SecurityEventSortFields contains allowed sort fields for security events
var SecurityEventSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"type":       true,
	"severity":   true,
	"actor":      true,
	"ip":         true,
}

// AlertSortFields contains allowed sort fields for security alerts
var AlertSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"rule":         true,
	"severity":     true,
	"status":       true,
	"occurrences":  true,
	"last_seen_at": true,
}

// RuleSortFields contains allowed sort fields for automation rules
var RuleSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"trigger":     true,
	"enabled":     true,
	"last_run_at": true,
	"run_count":   true,
}

// BulkOperationSortFields contains allowed sort fields for bulk operations
var BulkOperationSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"action":      true,
	"status":      true,
	"total_count": true,
	"started_at":  true,
	"finished_at": true,
}

// BackupSortFields contains allowed sort fields for backup records
var BackupSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"kind":        true,
	"status":      true,
	"size_bytes":  true,
	"finished_at": true,
}
