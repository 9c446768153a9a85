package identity

import (
	"strings"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of an admin user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

// User represents a back-office admin user
// It is the aggregate root for user management operations
type User struct {
	shared.BaseAggregateRoot
	Username     string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email        string     `gorm:"type:varchar(254);not null;uniqueIndex"`
	DisplayName  string     `gorm:"type:varchar(100)"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Roles        []Role     `gorm:"many2many:user_roles"`
	LastLoginAt  *time.Time
	FailedLogins int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new admin user with a bcrypt-hashed password
func NewUser(username, email, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(username),
		Email:             strings.ToLower(email),
		DisplayName:       username,
		PasswordHash:      string(hash),
		Status:            UserStatusActive,
	}, nil
}

// UpdateProfile updates the user's display name and email
func (u *User) UpdateProfile(displayName, email string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
		u.Email = strings.ToLower(email)
	}
	if displayName != "" {
		if len(displayName) > 100 {
			return shared.NewDomainError("INVALID_NAME", "Display name cannot exceed 100 characters")
		}
		u.DisplayName = displayName
	}
	u.Touch()
	u.IncrementVersion()
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ResetPassword replaces the stored password hash
func (u *User) ResetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Touch()
	u.IncrementVersion()
	return nil
}

// RecordLogin records a successful login and clears the failure counter
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedLogins = 0
	u.UpdatedAt = now
}

// RecordFailedLogin increments the failure counter.
// Returns true if the failure pushed the account over the lock threshold.
func (u *User) RecordFailedLogin(lockThreshold int) bool {
	u.FailedLogins++
	u.Touch()
	if lockThreshold > 0 && u.FailedLogins >= lockThreshold && u.Status == UserStatusActive {
		u.Status = UserStatusLocked
		u.IncrementVersion()
		return true
	}
	return false
}

// Activate activates the user
func (u *User) Activate() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.Status = UserStatusActive
	u.FailedLogins = 0
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Deactivate deactivates the user
func (u *User) Deactivate() error {
	if u.Status == UserStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "User is already inactive")
	}
	u.Status = UserStatusInactive
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Lock locks the user account
func (u *User) Lock() error {
	if u.Status == UserStatusLocked {
		return shared.NewDomainError("ALREADY_LOCKED", "User is already locked")
	}
	u.Status = UserStatusLocked
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Unlock unlocks the user account and clears the failure counter
func (u *User) Unlock() error {
	if u.Status != UserStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "User is not locked")
	}
	u.Status = UserStatusActive
	u.FailedLogins = 0
	u.Touch()
	u.IncrementVersion()
	return nil
}

// AssignRoles replaces the user's role set
func (u *User) AssignRoles(roles []Role) {
	u.Roles = roles
	u.Touch()
	u.IncrementVersion()
}

// IsActive returns true if the user can log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HasPermission returns true if any assigned role grants the permission
func (u *User) HasPermission(permission string) bool {
	for _, role := range u.Roles {
		if role.HasPermission(permission) {
			return true
		}
	}
	return false
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 || len(username) > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be between 3 and 50 characters")
	}
	for _, r := range username {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-') {
			return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, dots, underscores, and hyphens")
		}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}
	if len(email) > 254 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 254 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt input limit
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
