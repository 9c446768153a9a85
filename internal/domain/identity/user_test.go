package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("Admin", "admin@markethub.example", "s3cret-pass")
		require.NoError(t, err)

		assert.Equal(t, "admin", user.Username)
		assert.Equal(t, "admin@markethub.example", user.Email)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
		assert.True(t, user.CheckPassword("s3cret-pass"))
		assert.False(t, user.CheckPassword("wrong"))
	})

	t.Run("rejects short username", func(t *testing.T) {
		_, err := NewUser("ab", "a@b.co", "s3cret-pass")
		assert.Error(t, err)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUser("admin", "not-an-email", "s3cret-pass")
		assert.Error(t, err)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser("admin", "a@b.co", "short")
		assert.Error(t, err)
	})
}

func TestUser_StatusTransitions(t *testing.T) {
	newUser := func(t *testing.T) *User {
		user, err := NewUser("admin", "admin@markethub.example", "s3cret-pass")
		require.NoError(t, err)
		return user
	}

	t.Run("deactivate then activate", func(t *testing.T) {
		user := newUser(t)
		require.NoError(t, user.Deactivate())
		assert.Equal(t, UserStatusInactive, user.Status)
		require.NoError(t, user.Activate())
		assert.Equal(t, UserStatusActive, user.Status)
	})

	t.Run("activate when already active fails", func(t *testing.T) {
		user := newUser(t)
		assert.Error(t, user.Activate())
	})

	t.Run("lock and unlock", func(t *testing.T) {
		user := newUser(t)
		require.NoError(t, user.Lock())
		assert.Equal(t, UserStatusLocked, user.Status)
		assert.False(t, user.IsActive())

		require.NoError(t, user.Unlock())
		assert.Equal(t, UserStatusActive, user.Status)
		assert.Zero(t, user.FailedLogins)
	})

	t.Run("unlock when not locked fails", func(t *testing.T) {
		user := newUser(t)
		assert.Error(t, user.Unlock())
	})
}

func TestUser_FailedLogins(t *testing.T) {
	user, err := NewUser("admin", "admin@markethub.example", "s3cret-pass")
	require.NoError(t, err)

	locked := false
	for i := 0; i < 5; i++ {
		locked = user.RecordFailedLogin(5)
	}
	assert.True(t, locked)
	assert.Equal(t, UserStatusLocked, user.Status)
	assert.Equal(t, 5, user.FailedLogins)

	// RecordLogin clears the counter after unlock
	require.NoError(t, user.Unlock())
	user.RecordFailedLogin(5)
	user.RecordLogin()
	assert.Zero(t, user.FailedLogins)
	assert.NotNil(t, user.LastLoginAt)
}

func TestRole_Permissions(t *testing.T) {
	t.Run("exact and wildcard matching", func(t *testing.T) {
		role, err := NewRole("ops", "Operations", []string{PermissionOrdersManage, "products:*"})
		require.NoError(t, err)

		assert.True(t, role.HasPermission("orders:manage"))
		assert.True(t, role.HasPermission("products:manage"))
		assert.True(t, role.HasPermission("products:read"))
		assert.False(t, role.HasPermission("users:manage"))
	})

	t.Run("star grants everything", func(t *testing.T) {
		role, err := NewRole("root", "Superadmin", []string{PermissionAll})
		require.NoError(t, err)
		assert.True(t, role.HasPermission("anything:at-all"))
	})

	t.Run("disabled role grants nothing", func(t *testing.T) {
		role, err := NewRole("ops", "Operations", []string{PermissionAll})
		require.NoError(t, err)
		require.NoError(t, role.Disable())
		assert.False(t, role.HasPermission("orders:manage"))
	})

	t.Run("system role cannot be disabled", func(t *testing.T) {
		role, err := NewRole("root", "Superadmin", []string{PermissionAll})
		require.NoError(t, err)
		role.IsSystem = true
		assert.Error(t, role.Disable())
	})
}

func TestUser_HasPermission(t *testing.T) {
	user, err := NewUser("admin", "admin@markethub.example", "s3cret-pass")
	require.NoError(t, err)

	ops, err := NewRole("ops", "Operations", []string{PermissionOrdersManage})
	require.NoError(t, err)

	user.AssignRoles([]Role{*ops})
	assert.True(t, user.HasPermission(PermissionOrdersManage))
	assert.False(t, user.HasPermission(PermissionBackupManage))
}
