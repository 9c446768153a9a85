// Integration tests for the catalog API endpoints against a real
// database.
package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/markethub/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductAPI_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	username, password := ts.SeedAdmin(t)
	access, _ := ts.Login(t, username, password)

	var productID string

	t.Run("Create product", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", access, map[string]interface{}{
			"sku":                 "HOODIE-GRY-L",
			"name":                "Grey Hoodie (L)",
			"description":         "Heavyweight fleece hoodie",
			"price":               49.99,
			"cost":                18.00,
			"stock_quantity":      25,
			"low_stock_threshold": 5,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		productID = data["id"].(string)
		assert.Equal(t, "HOODIE-GRY-L", data["sku"])
		assert.Equal(t, float64(25), data["stock_quantity"])
		assert.Equal(t, "active", data["status"])
	})

	t.Run("Duplicate SKU is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", access, map[string]interface{}{
			"sku":   "HOODIE-GRY-L",
			"name":  "Another Hoodie",
			"price": 39.99,
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_ALREADY_EXISTS", resp.Error.Code)
	})

	t.Run("Get by ID and by SKU", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products/"+productID, access, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.Request(http.MethodGet, "/api/v1/catalog/products/sku/HOODIE-GRY-L", access, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, productID, data["id"])
	})

	t.Run("Update price", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/catalog/products/"+productID, access, map[string]interface{}{
			"price": 44.99,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "44.99", fmt.Sprintf("%v", data["price"]))
	})

	t.Run("Adjust stock", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products/"+productID+"/stock", access, map[string]interface{}{
			"delta": -22,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["stock_quantity"])
		assert.Equal(t, true, data["low_stock"])
	})

	t.Run("Adjustment below zero is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products/"+productID+"/stock", access, map[string]interface{}{
			"delta": -100,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Low stock listing", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products/low-stock", access, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		list := resp.Data.([]interface{})
		require.Len(t, list, 1)
		item := list[0].(map[string]interface{})
		assert.Equal(t, "HOODIE-GRY-L", item["sku"])
	})

	t.Run("Archive product", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/catalog/products/"+productID+"/status", access, map[string]interface{}{
			"status": "archived",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "archived", data["status"])
	})

	t.Run("Delete product", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, "/api/v1/catalog/products/"+productID, access, nil)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = ts.Request(http.MethodGet, "/api/v1/catalog/products/"+productID, access, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductAPI_Permissions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	viewerPass := ts.SeedUser(t, "viewer", "viewer@example.com", identity.PermissionAnalyticsView)
	access, _ := ts.Login(t, "viewer", viewerPass)

	t.Run("Read access without catalog permission", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products", access, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Write access is denied", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", access, map[string]interface{}{
			"sku":   "DENIED-001",
			"name":  "Should not exist",
			"price": 1.00,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_FORBIDDEN", resp.Error.Code)
	})
}

func TestProductAPI_SearchIsInjectionSafe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	username, password := ts.SeedAdmin(t)
	access, _ := ts.Login(t, username, password)

	w := ts.Request(http.MethodPost, "/api/v1/catalog/products", access, map[string]interface{}{
		"sku":   "SAFE-001",
		"name":  "Safe Product",
		"price": 10.00,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A hostile search term must be treated as data, not SQL
	w = ts.Request(http.MethodGet, "/api/v1/catalog/products?search='%3B%20DROP%20TABLE%20products%3B--", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.Request(http.MethodGet, "/api/v1/catalog/products/sku/SAFE-001", access, nil)
	assert.Equal(t, http.StatusOK, w.Code, "products table should survive a hostile search")
}
