package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestCheckout_ExampleScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")
	a := e.product(t, "A", 100, 5)

	_, err := e.cart.Add(ctx, c.UserID, a.ID)
	require.NoError(t, err)
	line, err := e.cart.Add(ctx, c.UserID, a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, line.Quantity)

	order, err := e.orders.Checkout(ctx, CheckoutInput{
		UserID:  c.UserID,
		Address: sptr("123 Main St"),
		Phone:   sptr("5551234"),
		Items:   []CheckoutItem{{ProductID: a.ID, Quantity: 2, Price: 100, CartItemID: uptr(line.ID)}},
	})
	require.NoError(t, err)

	assert.Equal(t, 200.0, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "123 Main St", order.Address)
	require.Len(t, order.Items, 1)
	assert.Equal(t, a.ID, order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 3, e.stock(t, a.ID))

	lines, err := e.cart.Lines(ctx, c.UserID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	u, err := e.repo.GetUser(ctx, c.UserID)
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", u.Address)
	assert.Equal(t, "5551234", u.Phone)

	assert.Contains(t, e.pub.types(), "order_created")
}

func TestCheckout_KeepsUnselectedLines(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	a := e.product(t, "A", 10, 5)
	b := e.product(t, "B", 20, 5)
	d := e.product(t, "D", 1.5, 5)

	la, err := e.cart.Add(ctx, c.UserID, a.ID)
	require.NoError(t, err)
	lb, err := e.cart.Add(ctx, c.UserID, b.ID)
	require.NoError(t, err)
	ld, err := e.cart.Add(ctx, c.UserID, d.ID)
	require.NoError(t, err)

	order, err := e.orders.Checkout(ctx, CheckoutInput{
		UserID: c.UserID,
		Items: []CheckoutItem{
			{ProductID: a.ID, Quantity: 1, Price: 10, CartItemID: uptr(la.ID)},
			{ProductID: d.ID, Quantity: 3, Price: 1.5, CartItemID: uptr(ld.ID)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 14.5, order.Total)

	lines, err := e.cart.Lines(ctx, c.UserID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, lb.ID, lines[0].CartItemID)
}

func TestCheckout_Preconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		items   func(p *models.Product) []CheckoutItem
		kind    error
		reason  error
	}{
		{
			name:    "address required before anything else",
			address: "",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: 999, Quantity: 1, Price: 1}}
			},
			kind:   ErrValidation,
			reason: ErrAddressRequired,
		},
		{
			name:    "missing product",
			address: "1 Main St",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: p.Price}, {ProductID: 999, Quantity: 1, Price: 1}}
			},
			kind:   ErrNotFound,
			reason: ErrProductNotFound,
		},
		{
			name:    "insufficient stock",
			address: "1 Main St",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: p.ID, Quantity: 6, Price: p.Price}}
			},
			kind:   ErrStock,
			reason: ErrInsufficientStock,
		},
		{
			name:    "stock counted across duplicate lines",
			address: "1 Main St",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: p.ID, Quantity: 3, Price: p.Price}, {ProductID: p.ID, Quantity: 3, Price: p.Price}}
			},
			kind:   ErrStock,
			reason: ErrInsufficientStock,
		},
		{
			name:    "empty order",
			address: "1 Main St",
			items:   func(p *models.Product) []CheckoutItem { return nil },
			kind:    ErrValidation,
			reason:  ErrEmptyOrder,
		},
		{
			name:    "price differs from catalog",
			address: "1 Main St",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: 1}}
			},
			kind:   ErrValidation,
			reason: ErrPriceMismatch,
		},
		{
			name:    "unknown cart line",
			address: "1 Main St",
			items: func(p *models.Product) []CheckoutItem {
				return []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: p.Price, CartItemID: uptr(12345)}}
			},
			kind:   ErrNotFound,
			reason: ErrCartItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t)
			ctx := context.Background()
			c := e.customer(t, "c@example.com", tt.address, "555")
			p := e.product(t, "Mouse", 25, 5)

			_, err := e.orders.Checkout(ctx, CheckoutInput{UserID: c.UserID, Items: tt.items(p)})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.reason)

			assert.Equal(t, 5, e.stock(t, p.ID))
			var orders int64
			require.NoError(t, e.repo.DB.Model(&models.Order{}).Count(&orders).Error)
			assert.Zero(t, orders)
		})
	}
}

func TestCheckout_InsufficientStockNamesProduct(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	p := e.product(t, "Mouse", 25, 1)

	_, err := e.orders.Checkout(context.Background(), CheckoutInput{
		UserID: c.UserID,
		Items:  []CheckoutItem{{ProductID: p.ID, Quantity: 2, Price: 25}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Mouse"`)
}

func TestCheckout_FailedValidationDoesNotSaveAddress(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "old", "old")
	p := e.product(t, "Mouse", 25, 1)

	_, err := e.orders.Checkout(ctx, CheckoutInput{
		UserID:  c.UserID,
		Address: sptr("new"),
		Phone:   sptr("new"),
		Items:   []CheckoutItem{{ProductID: p.ID, Quantity: 2, Price: 25}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	u, err := e.repo.GetUser(ctx, c.UserID)
	require.NoError(t, err)
	assert.Equal(t, "old", u.Address)
}

func TestCheckout_UsesCartSnapshotPrice(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	p := e.product(t, "Mouse", 25, 5)
	line, err := e.cart.Add(ctx, c.UserID, p.ID)
	require.NoError(t, err)

	require.NoError(t, e.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 30).Error)

	_, err = e.orders.Checkout(ctx, CheckoutInput{
		UserID: c.UserID,
		Items:  []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: 30, CartItemID: uptr(line.ID)}},
	})
	require.ErrorIs(t, err, ErrPriceMismatch)

	order, err := e.orders.Checkout(ctx, CheckoutInput{
		UserID: c.UserID,
		Items:  []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: 25, CartItemID: uptr(line.ID)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 25.0, order.Total)
}

func TestCheckout_CannotConsumeAnotherUsersCartLine(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	other := e.customer(t, "o@example.com", "2 Main St", "556")
	p := e.product(t, "Mouse", 25, 5)
	line, err := e.cart.Add(ctx, other.UserID, p.ID)
	require.NoError(t, err)

	_, err = e.orders.Checkout(ctx, CheckoutInput{
		UserID: c.UserID,
		Items:  []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: 25, CartItemID: uptr(line.ID)}},
	})
	require.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCheckout_LastUnitSoldOnce(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	buyers := []Actor{
		e.customer(t, "a@example.com", "1 Main St", "555"),
		e.customer(t, "b@example.com", "2 Main St", "556"),
	}
	p := e.product(t, "Last", 10, 1)

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, b Actor) {
			defer wg.Done()
			_, errs[i] = e.orders.Checkout(ctx, CheckoutInput{
				UserID: b.UserID,
				Items:  []CheckoutItem{{ProductID: p.ID, Quantity: 1, Price: 10}},
			})
		}(i, b)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, e.stock(t, p.ID))

	var orders int64
	require.NoError(t, e.repo.DB.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}

func newOrder(t *testing.T, e *env, c Actor, p *models.Product, qty int) *models.Order {
	t.Helper()
	o, err := e.orders.Checkout(context.Background(), CheckoutInput{
		UserID: c.UserID,
		Items:  []CheckoutItem{{ProductID: p.ID, Quantity: qty, Price: p.Price}},
	})
	require.NoError(t, err)
	return o
}

func TestUpdateStatus_CustomerCancelRestocks(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	p := e.product(t, "A", 10, 5)
	o := newOrder(t, e, c, p, 2)
	require.Equal(t, 3, e.stock(t, p.ID))

	got, err := e.orders.UpdateStatus(ctx, c, o.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, 5, e.stock(t, p.ID))
	assert.Contains(t, e.pub.types(), "order_status_changed")
}

func TestUpdateStatus_CustomerRules(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	other := e.customer(t, "o@example.com", "2 Main St", "556")
	admin := e.admin(t)
	p := e.product(t, "A", 10, 5)
	o := newOrder(t, e, c, p, 1)

	_, err := e.orders.UpdateStatus(ctx, c, o.ID, "COMPLETED")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.orders.UpdateStatus(ctx, other, o.ID, "CANCELLED")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "COMPLETED")
	require.NoError(t, err)

	_, err = e.orders.UpdateStatus(ctx, c, o.ID, "CANCELLED")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 4, e.stock(t, p.ID))
}

func TestUpdateStatus_AdminTransitions(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	admin := e.admin(t)
	p := e.product(t, "A", 10, 5)
	o := newOrder(t, e, c, p, 2)

	_, err := e.orders.UpdateStatus(ctx, admin, o.ID, "SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID+100, "COMPLETED")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := e.orders.UpdateStatus(ctx, admin, o.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Equal(t, 3, e.stock(t, p.ID))

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "CANCELLED")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 3, e.stock(t, p.ID))

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "PENDING")
	require.NoError(t, err)
	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, 5, e.stock(t, p.ID))

	got, err = e.orders.UpdateStatus(ctx, admin, o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, 5, e.stock(t, p.ID))

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "PENDING")
	require.NoError(t, err)
	assert.Equal(t, 3, e.stock(t, p.ID))

	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "CANCELLED")
	require.NoError(t, err)
	require.NoError(t, e.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 1).Error)
	_, err = e.orders.UpdateStatus(ctx, admin, o.ID, "COMPLETED")
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestListForUser_Access(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	other := e.customer(t, "o@example.com", "2 Main St", "556")
	admin := e.admin(t)
	p := e.product(t, "A", 10, 5)
	first := newOrder(t, e, c, p, 1)
	second := newOrder(t, e, c, p, 1)

	orders, err := e.orders.ListForUser(ctx, c, c.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Equal(t, "A", orders[0].Items[0].Product.Name)

	_, err = e.orders.ListForUser(ctx, other, c.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	orders, err = e.orders.ListForUser(ctx, admin, c.UserID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	all, users, err := e.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "c@example.com", users[c.UserID].Email)
}

func TestDeleteOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	p := e.product(t, "A", 10, 5)
	o := newOrder(t, e, c, p, 1)

	require.NoError(t, e.orders.Delete(ctx, o.ID))
	assert.ErrorIs(t, e.orders.Delete(ctx, o.ID), ErrOrderNotFound)
}

func TestCheckout_TotalIsExactToTheCent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	c := e.customer(t, "c@example.com", "1 Main St", "555")
	a := e.product(t, "A", 0.1, 10)
	b := e.product(t, "B", 0.2, 10)

	o, err := e.orders.Checkout(context.Background(), CheckoutInput{
		UserID: c.UserID,
		Items: []CheckoutItem{
			{ProductID: a.ID, Quantity: 3, Price: 0.1},
			{ProductID: b.ID, Quantity: 1, Price: 0.2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, o.Total)
}

func TestRoundCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30.3, roundCents(10.1+20.2))
	assert.Equal(t, 35.3, roundCents(35.300000000000004))
	assert.Equal(t, 0.0, roundCents(0))
}
