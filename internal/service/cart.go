package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) Lines(ctx context.Context, userID uint) ([]repo.CartLine, error) {
	return s.Repo.ListCart(ctx, userID)
}

func (s *CartService) Count(ctx context.Context, userID uint) (int64, error) {
	return s.Repo.CountCart(ctx, userID)
}

// Add puts one more unit of the product in the user's cart, snapshotting the
// current price on first add.
func (s *CartService) Add(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(productID)
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, productNotFound(productID)
	}
	if p.Stock <= 0 {
		return nil, newError(ErrStock, ErrOutOfStock, "%q is out of stock", p.Name)
	}

	item, err := s.Repo.AddCartItem(ctx, userID, p.ID, p.Price)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicCart, userID, events.New("cart_item_added", map[string]any{
		"user_id":    userID,
		"product_id": p.ID,
		"quantity":   item.Quantity,
	}))
	return item, nil
}

func (s *CartService) SetQuantity(ctx context.Context, actor Actor, itemID uint, quantity int) (*models.CartItem, error) {
	item, owner, err := s.Repo.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrCartItemNotFound, "cart item %d not found", itemID)
		}
		return nil, err
	}
	if _, err := actor.TargetUser(&owner); err != nil {
		return nil, err
	}

	p, err := s.Repo.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(item.ProductID)
		}
		return nil, err
	}
	if quantity < 1 || quantity > p.Stock {
		return nil, newError(ErrValidation, ErrQuantityOutOfRange,
			"quantity must be between 1 and %d", max(p.Stock, 1))
	}

	if err := s.Repo.SetCartItemQuantity(ctx, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrCartItemNotFound, "cart item %d not found", itemID)
		}
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

// Remove deletes one cart line. Removing a line that does not exist succeeds.
func (s *CartService) Remove(ctx context.Context, actor Actor, itemID uint) error {
	_, owner, err := s.Repo.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if _, err := actor.TargetUser(&owner); err != nil {
		return err
	}

	deleted, err := s.Repo.RemoveCartItem(ctx, itemID)
	if err != nil {
		return err
	}
	if deleted {
		events.Emit(ctx, s.Events, events.TopicCart, owner, events.New("cart_item_removed", map[string]any{
			"user_id":      owner,
			"cart_item_id": itemID,
		}))
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		events.Emit(ctx, s.Events, events.TopicCart, userID, events.New("cart_cleared", map[string]any{
			"user_id": userID,
			"removed": n,
		}))
	}
	return nil
}
