package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("Jane Doe", "jane@example.com")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.NotEmpty(t, o.OrderNumber)
		assert.Contains(t, o.OrderNumber, "MH-")
		assert.True(t, o.Total.IsZero())
	})

	t.Run("missing customer name", func(t *testing.T) {
		_, err := NewOrder("", "jane@example.com")
		assert.Error(t, err)
	})

	t.Run("missing customer email", func(t *testing.T) {
		_, err := NewOrder("Jane Doe", "")
		assert.Error(t, err)
	})
}

func TestOrder_Items(t *testing.T) {
	t.Run("totals recalculated on add", func(t *testing.T) {
		o := newTestOrder(t)
		err := o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromFloat(9.99), 2)
		require.NoError(t, err)
		err = o.AddItem(uuid.New(), "SKU-2", "Gadget", decimal.NewFromInt(5), 1)
		require.NoError(t, err)

		assert.Len(t, o.Items, 2)
		assert.True(t, o.Subtotal.Equal(decimal.NewFromFloat(24.98)))
		assert.True(t, o.Total.Equal(decimal.NewFromFloat(24.98)))
	})

	t.Run("shipping and tax included in total", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		require.NoError(t, o.SetShipping(decimal.NewFromInt(3), "1 Main St"))
		require.NoError(t, o.SetTax(decimal.NewFromInt(2)))
		assert.True(t, o.Total.Equal(decimal.NewFromInt(15)))
	})

	t.Run("remove item", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		itemID := o.Items[0].ID
		require.NoError(t, o.RemoveItem(itemID))
		assert.Empty(t, o.Items)
		assert.True(t, o.Total.IsZero())
	})

	t.Run("invalid quantity", func(t *testing.T) {
		o := newTestOrder(t)
		err := o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 0)
		assert.Error(t, err)
	})

	t.Run("cannot add items after payment", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		require.NoError(t, o.MarkPaid("card", "pay_123"))
		err := o.AddItem(uuid.New(), "SKU-2", "Gadget", decimal.NewFromInt(5), 1)
		assert.Error(t, err)
	})
}

func TestOrder_StatusMachine(t *testing.T) {
	t.Run("happy path to completed", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))

		require.NoError(t, o.MarkPaid("card", "pay_123"))
		assert.Equal(t, OrderStatusPaid, o.Status)
		assert.NotNil(t, o.PaidAt)

		require.NoError(t, o.Fulfil("TRACK-42"))
		assert.Equal(t, OrderStatusFulfilled, o.Status)
		assert.Equal(t, "TRACK-42", o.TrackingNumber)

		require.NoError(t, o.Complete())
		assert.Equal(t, OrderStatusCompleted, o.Status)
	})

	t.Run("cannot pay empty order", func(t *testing.T) {
		o := newTestOrder(t)
		err := o.MarkPaid("card", "pay_123")
		assert.Error(t, err)
		assert.Equal(t, OrderStatusPending, o.Status)
	})

	t.Run("cannot fulfil unpaid order", func(t *testing.T) {
		o := newTestOrder(t)
		err := o.Fulfil("TRACK-1")
		assert.Error(t, err)
	})

	t.Run("cancel pending order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Cancel("customer changed their mind"))
		assert.Equal(t, OrderStatusCancelled, o.Status)
		assert.NotNil(t, o.CancelledAt)
		assert.True(t, o.IsTerminal())
	})

	t.Run("cancelled order cannot move", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Cancel(""))
		assert.Error(t, o.Complete())
		assert.Error(t, o.MarkPaid("card", "x"))
	})

	t.Run("refund after fulfilment", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		require.NoError(t, o.MarkPaid("card", "pay_123"))
		require.NoError(t, o.Fulfil("TRACK-1"))
		require.NoError(t, o.Refund("damaged in transit"))
		assert.Equal(t, OrderStatusRefunded, o.Status)
		assert.True(t, o.IsTerminal())
	})

	t.Run("refund completed order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		require.NoError(t, o.MarkPaid("card", "pay_123"))
		require.NoError(t, o.Fulfil("TRACK-1"))
		require.NoError(t, o.Complete())
		require.NoError(t, o.Refund("goodwill"))
		assert.Equal(t, OrderStatusRefunded, o.Status)
	})

	t.Run("cannot cancel fulfilled order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10), 1))
		require.NoError(t, o.MarkPaid("card", "pay_123"))
		require.NoError(t, o.Fulfil("TRACK-1"))
		assert.Error(t, o.Cancel(""))
	})
}
