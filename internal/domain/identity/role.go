package identity

import (
	"encoding/json"
	"strings"

	"github.com/markethub/backend/internal/domain/shared"
)

// Role represents a named permission set assignable to users
type Role struct {
	shared.BaseAggregateRoot
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	Permissions string `gorm:"type:jsonb;not null;default:'[]'"`
	IsSystem    bool   `gorm:"not null;default:false"`
	Enabled     bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// Well-known permission strings
const (
	PermissionAll              = "*"
	PermissionUsersManage      = "users:manage"
	PermissionProductsManage   = "products:manage"
	PermissionOrdersManage     = "orders:manage"
	PermissionIntegrations     = "integrations:manage"
	PermissionAnalyticsView    = "analytics:view"
	PermissionMobileConfig     = "mobile:manage"
	PermissionSecurityView     = "security:view"
	PermissionBulkExecute      = "bulk:execute"
	PermissionAutomationManage = "automation:manage"
	PermissionBackupManage     = "backup:manage"
)

// NewRole creates a new role
func NewRole(code, name string, permissions []string) (*Role, error) {
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Role code must be between 1 and 50 characters")
	}
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Role name must be between 1 and 100 characters")
	}

	role := &Role{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToLower(code),
		Name:              name,
		Permissions:       "[]",
		Enabled:           true,
	}
	if err := role.SetPermissions(permissions); err != nil {
		return nil, err
	}
	return role, nil
}

// SetPermissions replaces the role's permission list
func (r *Role) SetPermissions(permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	raw, err := json.Marshal(permissions)
	if err != nil {
		return shared.NewDomainError("INVALID_PERMISSIONS", "Permissions must be serializable")
	}
	r.Permissions = string(raw)
	r.Touch()
	r.IncrementVersion()
	return nil
}

// PermissionList returns the decoded permission list
func (r *Role) PermissionList() []string {
	var perms []string
	if err := json.Unmarshal([]byte(r.Permissions), &perms); err != nil {
		return nil
	}
	return perms
}

// HasPermission checks whether the role grants a permission.
// A role holding "*" grants everything; "orders:*" grants all orders actions.
func (r *Role) HasPermission(permission string) bool {
	if !r.Enabled {
		return false
	}
	for _, p := range r.PermissionList() {
		if p == PermissionAll || p == permission {
			return true
		}
		if strings.HasSuffix(p, ":*") && strings.HasPrefix(permission, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

// Update updates the role's display fields
func (r *Role) Update(name, description string) error {
	if name != "" {
		if len(name) > 100 {
			return shared.NewDomainError("INVALID_NAME", "Role name cannot exceed 100 characters")
		}
		r.Name = name
	}
	r.Description = description
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Enable enables the role
func (r *Role) Enable() {
	r.Enabled = true
	r.Touch()
	r.IncrementVersion()
}

// Disable disables the role. System roles cannot be disabled.
func (r *Role) Disable() error {
	if r.IsSystem {
		return shared.NewDomainError("SYSTEM_ROLE", "System roles cannot be disabled")
	}
	r.Enabled = false
	r.Touch()
	r.IncrementVersion()
	return nil
}
