package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestCartAdd(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")
	p := e.product(t, "Keyboard", 49.9, 3)

	first, err := e.cart.Add(ctx, c.UserID, p.ID)
	require.NoError(t, err)
	second, err := e.cart.Add(ctx, c.UserID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	lines, err := e.cart.Lines(ctx, c.UserID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Keyboard", lines[0].Name)
	assert.Equal(t, 49.9, lines[0].Price)
	assert.Equal(t, 3, lines[0].Stock)

	n, err := e.cart.Count(ctx, c.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 3, e.stock(t, p.ID))
	assert.Contains(t, e.pub.types(), "cart_item_added")
}

func TestCartAdd_Rejects(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")

	_, err := e.cart.Add(ctx, c.UserID, 42)
	assert.ErrorIs(t, err, ErrProductNotFound)

	empty := e.product(t, "Empty", 5, 0)
	_, err = e.cart.Add(ctx, c.UserID, empty.ID)
	assert.ErrorIs(t, err, ErrStock)
	assert.ErrorIs(t, err, ErrOutOfStock)

	hidden := &models.Product{Name: "Hidden", Price: 5, Stock: 5, IsActive: false}
	require.NoError(t, e.repo.CreateProduct(ctx, hidden))
	_, err = e.cart.Add(ctx, c.UserID, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := e.cart.Count(ctx, c.UserID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCartSetQuantity(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")
	other := e.customer(t, "o@example.com", "", "")
	p := e.product(t, "Keyboard", 10, 3)
	line, err := e.cart.Add(ctx, c.UserID, p.ID)
	require.NoError(t, err)

	got, err := e.cart.SetQuantity(ctx, c, line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	for _, q := range []int{0, -1, 4} {
		_, err = e.cart.SetQuantity(ctx, c, line.ID, q)
		assert.ErrorIs(t, err, ErrQuantityOutOfRange, "quantity %d", q)
	}

	_, err = e.cart.SetQuantity(ctx, other, line.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.cart.SetQuantity(ctx, c, line.ID+100, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	lines, err := e.cart.Lines(ctx, c.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestCartRemove(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")
	other := e.customer(t, "o@example.com", "", "")
	p := e.product(t, "Keyboard", 10, 3)
	line, err := e.cart.Add(ctx, c.UserID, p.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.cart.Remove(ctx, other, line.ID), ErrForbidden)

	require.NoError(t, e.cart.Remove(ctx, c, line.ID))
	require.NoError(t, e.cart.Remove(ctx, c, line.ID))

	lines, err := e.cart.Lines(ctx, c.UserID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, 1, countType(e.pub.types(), "cart_item_removed"))
}

func TestCartClear(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "c@example.com", "", "")
	a := e.product(t, "A", 10, 3)
	b := e.product(t, "B", 10, 3)
	_, err := e.cart.Add(ctx, c.UserID, a.ID)
	require.NoError(t, err)
	_, err = e.cart.Add(ctx, c.UserID, b.ID)
	require.NoError(t, err)

	require.NoError(t, e.cart.Clear(ctx, c.UserID))
	require.NoError(t, e.cart.Clear(ctx, c.UserID))

	n, err := e.cart.Count(ctx, c.UserID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, countType(e.pub.types(), "cart_cleared"))
}

func countType(types []string, want string) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}
