// Integration tests for the authentication flow against a real
// database: login, token refresh, logout revocation, password change
// and the failed-login lockout.
package integration

import (
	"net/http"
	"testing"

	"github.com/markethub/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthAPI_LoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	username, password := ts.SeedAdmin(t)

	t.Run("Login with valid credentials", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"username": username,
			"password": password,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		require.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.NotEmpty(t, data["access_token"])
		assert.NotEmpty(t, data["refresh_token"])
		assert.Equal(t, "Bearer", data["token_type"])

		user := data["user"].(map[string]interface{})
		assert.Equal(t, username, user["username"])
	})

	t.Run("Me returns profile and permissions", func(t *testing.T) {
		access, _ := ts.Login(t, username, password)

		w := ts.Request(http.MethodGet, "/api/v1/auth/me", access, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		perms := data["permissions"].([]interface{})
		assert.Contains(t, perms, identity.PermissionAll)
	})

	t.Run("Login with wrong password", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"username": username,
			"password": "definitely-wrong-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Login with unknown user", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"username": "nosuchuser",
			"password": "irrelevant-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Protected route without token", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Protected route with garbage token", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/auth/me", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthAPI_Lockout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	adminUser, adminPass := ts.SeedAdmin(t)
	victimPass := ts.SeedUser(t, "victim", "victim@example.com", identity.PermissionProductsManage)

	badLogin := func() (int, APIResponse) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"username": "victim",
			"password": "wrong-password-1",
		})
		return w.Code, decodeResponse(t, w)
	}

	// Attempts below the threshold fail as plain bad credentials
	for i := 0; i < testLockThreshold-1; i++ {
		code, resp := badLogin()
		assert.Equal(t, http.StatusUnauthorized, code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_INVALID_CREDENTIALS", resp.Error.Code)
	}

	// The attempt that crosses the threshold locks the account
	code, resp := badLogin()
	assert.Equal(t, http.StatusLocked, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_ACCOUNT_LOCKED", resp.Error.Code)

	// Correct credentials are refused while locked
	w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": "victim",
		"password": victimPass,
	})
	assert.Equal(t, http.StatusLocked, w.Code)

	// The lock shows up in the security trail
	access, _ := ts.Login(t, adminUser, adminPass)
	w = ts.Request(http.MethodGet, "/api/v1/security/events?type=account_locked", access, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	events := decodeResponse(t, w)
	list := events.Data.([]interface{})
	require.NotEmpty(t, list)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "account_locked", first["type"])
	assert.Equal(t, "victim", first["actor"])
}

func TestAuthAPI_RefreshAndLogout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	username, password := ts.SeedAdmin(t)
	access, refresh := ts.Login(t, username, password)

	t.Run("Refresh issues a new pair", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/refresh", "", map[string]interface{}{
			"refresh_token": refresh,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.NotEmpty(t, data["access_token"])
		assert.NotEmpty(t, data["refresh_token"])
	})

	t.Run("Refresh with an access token is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/refresh", "", map[string]interface{}{
			"refresh_token": access,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Logout revokes the access token", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/logout", access, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = ts.Request(http.MethodGet, "/api/v1/auth/me", access, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthAPI_ChangePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	username, password := ts.SeedAdmin(t)
	access, _ := ts.Login(t, username, password)

	newPassword := "Brand-New-Pass-42"

	t.Run("Wrong current password is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/auth/password", access, map[string]interface{}{
			"current_password": "not-the-password",
			"new_password":     newPassword,
		})
		assert.NotEqual(t, http.StatusOK, w.Code)
	})

	t.Run("Change succeeds with correct current password", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/auth/password", access, map[string]interface{}{
			"current_password": password,
			"new_password":     newPassword,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		// Old password no longer works
		w = ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"username": username,
			"password": password,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// New password does
		ts.Login(t, username, newPassword)
	})
}
