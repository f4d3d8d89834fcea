package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// CartLine is a cart item joined with the live product row.
type CartLine struct {
	CartItemID uint
	ProductID  uint
	Name       string
	Price      float64
	Quantity   int
	Stock      int
	Image      string
}

func cartOf(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}

func ensureCart(tx *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).Take(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("user_id = ?", userID).Take(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem increments the user's line for product or inserts one with
// quantity 1 at price. The cart is created on first use.
func (r *GormRepo) AddCartItem(ctx context.Context, userID, productID uint, price float64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		// The first add snapshots price; later adds only bump quantity.
		line := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 1, Price: price}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("carts_items.quantity + ?", 1)}),
		}).Create(&line).Error
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) ListCart(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.DB.WithContext(ctx).
		Table("carts_items AS ci").
		Select("ci.id AS cart_item_id, p.id AS product_id, p.name AS name, ci.price AS price, ci.quantity AS quantity, p.stock AS stock, p.image AS image").
		Joins("JOIN carts c ON c.id = ci.cart_id").
		Joins("JOIN product p ON p.id = ci.product_id").
		Where("c.user_id = ?", userID).
		Order("ci.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) CountCart(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("cart_id IN (?)", cartOf(r.DB, userID)).
		Scan(&n).Error
	return n, err
}

type cartItemRow struct {
	models.CartItem
	OwnerID uint
}

// GetCartItem returns the line together with the id of the user owning its cart.
func (r *GormRepo) GetCartItem(ctx context.Context, itemID uint) (*models.CartItem, uint, error) {
	var row cartItemRow
	res := r.DB.WithContext(ctx).
		Table("carts_items AS ci").
		Select("ci.*, c.user_id AS owner_id").
		Joins("JOIN carts c ON c.id = ci.cart_id").
		Where("ci.id = ?", itemID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, 0, gorm.ErrRecordNotFound
	}
	return &row.CartItem, row.OwnerID, nil
}

func (r *GormRepo) GetUserCartItems(ctx context.Context, userID uint, itemIDs []uint) (map[uint]models.CartItem, error) {
	out := make(map[uint]models.CartItem, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("id IN ?", itemIDs).
		Where("cart_id IN (?)", cartOf(r.DB, userID)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveCartItem reports whether a row was deleted.
func (r *GormRepo) RemoveCartItem(ctx context.Context, itemID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&models.CartItem{}, itemID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("cart_id IN (?)", cartOf(r.DB, userID)).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
