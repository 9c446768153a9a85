package identity

import (
	"context"

	"github.com/google/uuid"
	appsecurity "github.com/markethub/backend/internal/application/security"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// LockThreshold is how many consecutive failed logins lock the account
	LockThreshold int
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{LockThreshold: 5}
}

// AuthService handles authentication. Every login attempt is recorded
// as a security event for the monitor.
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	events     *appsecurity.EventService
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	events *appsecurity.EventService,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.LockThreshold <= 0 {
		config.LockThreshold = DefaultAuthServiceConfig().LockThreshold
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// LoginInput contains credentials plus request metadata for auditing
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// LoginResult contains the issued tokens and the authenticated user
type LoginResult struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int64   `json:"expires_in"`
	User         UserDTO `json:"user"`
}

// Login authenticates a user and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		s.recordEvent(ctx, security.EventLoginFailed, security.SeverityWarning, input.Username, input.IP,
			map[string]any{"reason": "unknown_user"})
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	if user.Status == identity.UserStatusLocked {
		s.recordEvent(ctx, security.EventLoginFailed, security.SeverityWarning, user.Username, input.IP,
			map[string]any{"reason": "locked"})
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Contact an administrator")
	}
	if !user.IsActive() {
		s.recordEvent(ctx, security.EventLoginFailed, security.SeverityWarning, user.Username, input.IP,
			map[string]any{"reason": "inactive"})
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.CheckPassword(input.Password) {
		locked := user.RecordFailedLogin(s.config.LockThreshold)
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("Failed to persist failed login", zap.Error(err))
		}

		if locked {
			s.recordEvent(ctx, security.EventAccountLocked, security.SeverityCritical, user.Username, input.IP,
				map[string]any{"threshold": s.config.LockThreshold})
			s.logger.Warn("Account locked after repeated failures",
				zap.String("username", user.Username),
				zap.String("ip", input.IP))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.recordEvent(ctx, security.EventLoginFailed, security.SeverityWarning, user.Username, input.IP,
			map[string]any{"reason": "bad_password", "failed_logins": user.FailedLogins})
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to persist login", zap.Error(err))
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:      user.ID,
		Username:    user.Username,
		Permissions: collectPermissions(user),
	})
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate tokens")
	}

	s.recordEvent(ctx, security.EventLoginSuccess, security.SeverityInfo, user.Username, input.IP, nil)
	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiration().Seconds()),
		User:         *toUserDTO(user),
	}, nil
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid or expired refresh token")
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Malformed token subject")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "User no longer exists")
	}
	if !user.IsActive() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:      user.ID,
		Username:    user.Username,
		Permissions: collectPermissions(user),
	})
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate tokens")
	}

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiration().Seconds()),
		User:         *toUserDTO(user),
	}, nil
}

// ChangePassword verifies the current password before setting a new one
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return shared.NewDomainError("NOT_FOUND", "User not found")
	}

	if !user.CheckPassword(currentPassword) {
		s.recordEvent(ctx, security.EventLoginFailed, security.SeverityWarning, user.Username, "",
			map[string]any{"reason": "password_change_bad_current"})
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}

	if err := user.ResetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to persist password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to change password")
	}

	s.recordEvent(ctx, security.EventPasswordReset, security.SeverityInfo, user.Username, "", nil)
	return nil
}

func (s *AuthService) recordEvent(ctx context.Context, eventType security.EventType, severity security.Severity, actor, ip string, meta map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, eventType, severity, actor, ip, meta)
}

func collectPermissions(user *identity.User) []string {
	seen := make(map[string]bool)
	var permissions []string
	for i := range user.Roles {
		role := &user.Roles[i]
		if !role.Enabled {
			continue
		}
		for _, p := range role.PermissionList() {
			if !seen[p] {
				seen[p] = true
				permissions = append(permissions, p)
			}
		}
	}
	return permissions
}
