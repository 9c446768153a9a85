package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormOrderRepository_FindByOrderNumber(t *testing.T) {
	t.Run("finds order and preloads items", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormOrderRepository(db)

		orderID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE order_number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ORD-20260830-0001", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "total"}).
				AddRow(orderID, "ORD-20260830-0001", "paid", decimal.NewFromInt(120)))

		mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE "order_items"\."order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "sku", "quantity"}))

		o, err := repo.FindByOrderNumber(context.Background(), "ORD-20260830-0001")
		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
		assert.Equal(t, order.OrderStatusPaid, o.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown order number", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormOrderRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE order_number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ORD-MISSING", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByOrderNumber(context.Background(), "ORD-MISSING")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_CountByStatus(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewGormOrderRepository(db)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "orders" GROUP BY "status"`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("paid", 12).
			AddRow("cancelled", 2))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, order.OrderStatusPending, counts[0].Status)
	assert.Equal(t, int64(4), counts[0].Count)
	assert.Equal(t, int64(12), counts[1].Count)
}

func TestGormOrderRepository_RevenueBetween(t *testing.T) {
	t.Run("sums revenue over paid window", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormOrderRepository(db)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(total\), 0\) AS revenue FROM "orders" WHERE status IN \(\$1,\$2,\$3\) AND .*paid_at >= \$4 AND paid_at < \$5`).
			WithArgs("paid", "fulfilled", "completed", from, to).
			WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow(decimal.NewFromFloat(1234.50)))

		revenue, err := repo.RevenueBetween(context.Background(), from, to)
		require.NoError(t, err)
		assert.True(t, revenue.Equal(decimal.NewFromFloat(1234.50)))
	})

	t.Run("returns zero for empty window", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormOrderRepository(db)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(total\), 0\) AS revenue FROM "orders"`).
			WithArgs("paid", "fulfilled", "completed", from, to).
			WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow(decimal.Zero))

		revenue, err := repo.RevenueBetween(context.Background(), from, to)
		require.NoError(t, err)
		assert.True(t, revenue.IsZero())
	})
}

func TestGormOrderRepository_TopProducts(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewGormOrderRepository(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	productID := uuid.New()

	mock.ExpectQuery(`SELECT order_items\.product_id, order_items\.name AS product_name, order_items\.sku, SUM\(order_items\.quantity\) AS units, COALESCE\(SUM\(order_items\.line_total\), 0\) AS revenue FROM "order_items" JOIN orders ON orders\.id = order_items\.order_id WHERE .* GROUP BY .* ORDER BY revenue DESC`).
		WithArgs("paid", "fulfilled", "completed", from, to, 5).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "sku", "units", "revenue"}).
			AddRow(productID, "Widget", "WIDGET-01", 42, decimal.NewFromInt(840)))

	sales, err := repo.TopProducts(context.Background(), from, to, 5)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, productID, sales[0].ProductID)
	assert.Equal(t, "WIDGET-01", sales[0].SKU)
	assert.Equal(t, int64(42), sales[0].Units)
	assert.True(t, sales[0].Revenue.Equal(decimal.NewFromInt(840)))
}

func TestGormOrderRepository_Delete(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewGormOrderRepository(db)

	orderID := uuid.New()

	mock.ExpectExec(`DELETE FROM "orders" WHERE id = \$1`).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), orderID)
	assert.NoError(t, err)
}
