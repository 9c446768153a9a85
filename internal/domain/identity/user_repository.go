package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	shared.Repository[User]
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByStatus(ctx context.Context, status UserStatus, filter shared.Filter) ([]User, error)
	CountByStatus(ctx context.Context, status UserStatus) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SaveWithRoles(ctx context.Context, user *User) error
}

// RoleRepository defines persistence operations for roles
type RoleRepository interface {
	shared.Repository[Role]
	FindByCode(ctx context.Context, code string) (*Role, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Role, error)
	FindSystemRoles(ctx context.Context) ([]Role, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}
