package repo

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// PlaceOrder is everything one checkout writes.
type PlaceOrder struct {
	Order *models.Order
	// ConsumeCartItemIDs are deleted from the cart of Order.UserID.
	ConsumeCartItemIDs []uint
	// SaveContact stores Order.Address and Order.Phone on the user.
	SaveContact bool
}

// CreateOrder writes the order, its lines, the stock reservation and the cart
// cleanup in one transaction. A product without enough stock aborts everything
// with *StockError.
func (r *GormRepo) CreateOrder(ctx context.Context, p PlaceOrder) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o := p.Order
		if p.SaveContact {
			if err := tx.Model(&models.User{}).Where("id = ?", o.UserID).
				Updates(map[string]any{"address": o.Address, "phone": o.Phone}).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}

		if err := reserveStock(tx, o.Items); err != nil {
			return err
		}

		if len(p.ConsumeCartItemIDs) > 0 {
			if err := tx.Where("id IN ?", p.ConsumeCartItemIDs).
				Where("cart_id IN (?)", cartOf(tx, o.UserID)).
				Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// reserveStock decrements in product id order so concurrent checkouts take
// row locks in the same sequence.
func reserveStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range byProduct(items) {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
			Update("stock", gorm.Expr("stock - ?", it.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StockError{ProductID: it.ProductID}
		}
	}
	return nil
}

func releaseStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range byProduct(items) {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

func byProduct(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items.Product").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// StockChange says what a status transition does to reserved stock.
type StockChange int

const (
	StockKeep StockChange = iota
	StockRelease
	StockReserve
)

// TransitionOrder moves the order from one status to another only if it is
// still in from, applying the stock change in the same transaction.
func (r *GormRepo) TransitionOrder(ctx context.Context, id uint, from, to models.OrderStatus, change StockChange) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if change == StockKeep {
			return nil
		}
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
			return err
		}
		if change == StockRelease {
			return releaseStock(tx, items)
		}
		return reserveStock(tx, items)
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

// DeleteOrder removes the order and its lines. Stock is not returned.
func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
