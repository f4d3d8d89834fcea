package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CheckoutItem struct {
	ProductID  uint
	Quantity   int
	Price      float64
	CartItemID *uint
}

type CheckoutInput struct {
	UserID uint
	// Address and Phone, when non-blank, replace the saved delivery details.
	Address *string
	Phone   *string
	Items   []CheckoutItem
}

const priceEpsilon = 1e-9

// Checkout turns the selected cart lines into a PENDING order. Preconditions
// are checked in order: delivery details, products and stock, non-empty
// selection, then prices. The writes happen in one transaction whose
// conditional stock decrement re-checks stock at commit time.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	user, err := s.Repo.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrUserNotFound, "user %d not found", in.UserID)
		}
		return nil, err
	}

	address, phone := user.Address, user.Phone
	saveContact := false
	if in.Address != nil && strings.TrimSpace(*in.Address) != "" {
		address, saveContact = strings.TrimSpace(*in.Address), true
	}
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		phone, saveContact = strings.TrimSpace(*in.Phone), true
	}
	if strings.TrimSpace(address) == "" || strings.TrimSpace(phone) == "" {
		return nil, newError(ErrValidation, ErrAddressRequired, "address and phone must be set before checkout")
	}

	ids := make([]uint, 0, len(in.Items))
	wanted := make(map[uint]int, len(in.Items))
	for _, it := range in.Items {
		if _, seen := wanted[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		wanted[it.ProductID] += it.Quantity
	}
	products, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, ok := products[id]
		if !ok || !p.IsActive {
			return nil, productNotFound(id)
		}
		if p.Stock < wanted[id] {
			return nil, insufficientStock(p.Name)
		}
	}

	if len(in.Items) == 0 {
		return nil, newError(ErrValidation, ErrEmptyOrder, "order has no items")
	}

	lines, err := s.cartLines(ctx, in.UserID, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:  in.UserID,
		Status:  models.OrderStatusPending,
		Address: address,
		Phone:   phone,
		Items:   make([]models.OrderItem, 0, len(in.Items)),
	}
	consume := make([]uint, 0, len(lines))
	total := decimal.Zero
	for _, it := range in.Items {
		authoritative := products[it.ProductID].Price
		if it.CartItemID != nil {
			line := lines[*it.CartItemID]
			if line.ProductID != it.ProductID {
				return nil, validationf("cart item %d does not hold product %d", line.ID, it.ProductID)
			}
			authoritative = line.Price
			consume = append(consume, line.ID)
		}
		if math.Abs(authoritative-it.Price) > priceEpsilon {
			return nil, newError(ErrValidation, ErrPriceMismatch,
				"price of %q changed to %.2f", products[it.ProductID].Name, authoritative)
		}

		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		order.Items = append(order.Items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	order.Total = total.Round(2).InexactFloat64()

	err = s.Repo.CreateOrder(ctx, repo.PlaceOrder{
		Order:              order,
		ConsumeCartItemIDs: consume,
		SaveContact:        saveContact,
	})
	if err != nil {
		var se *repo.StockError
		if errors.As(err, &se) {
			return nil, insufficientStock(products[se.ProductID].Name)
		}
		return nil, err
	}

	created, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.TopicOrder, created.ID, events.New("order_created", map[string]any{
		"order_id": created.ID,
		"user_id":  created.UserID,
		"total":    created.Total,
		"items":    len(created.Items),
	}))
	return created, nil
}

// cartLines loads the referenced cart lines, all of which must belong to the user.
func (s *OrderService) cartLines(ctx context.Context, userID uint, items []CheckoutItem) (map[uint]models.CartItem, error) {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.CartItemID == nil {
			continue
		}
		if seen[*it.CartItemID] {
			return nil, validationf("cart item %d is listed twice", *it.CartItemID)
		}
		seen[*it.CartItemID] = true
		ids = append(ids, *it.CartItemID)
	}

	lines, err := s.Repo.GetUserCartItems(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := lines[id]; !ok {
			return nil, newError(ErrNotFound, ErrCartItemNotFound, "cart item %d not found", id)
		}
	}
	return lines, nil
}

// roundCents rounds a money amount summed in floating point by the database.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func (s *OrderService) ListForUser(ctx context.Context, actor Actor, userID uint) ([]models.Order, error) {
	target, err := actor.TargetUser(&userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListUserOrders(ctx, target)
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, map[uint]models.User, error) {
	orders, err := s.Repo.ListOrders(ctx)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint, 0, len(orders))
	seen := make(map[uint]bool, len(orders))
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			ids = append(ids, o.UserID)
		}
	}
	users, err := s.Repo.GetUsers(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return orders, users, nil
}

func ParseStatus(v string) (models.OrderStatus, error) {
	st := models.OrderStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !st.Valid() {
		return "", newError(ErrValidation, ErrInvalidStatus, "invalid status %q", v)
	}
	return st, nil
}

// UpdateStatus moves an order to status. Only PENDING orders can be
// cancelled; otherwise admins may set any status, and customers may only
// cancel their own orders. Entering CANCELLED returns the order's stock and
// leaving it reserves the stock again.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID uint, status string) (*models.Order, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrOrderNotFound, "order %d not found", orderID)
		}
		return nil, err
	}

	if !actor.IsAdmin() {
		if order.UserID != actor.UserID {
			return nil, newError(ErrNotFound, ErrOrderNotFound, "order %d not found", orderID)
		}
		if to != models.OrderStatusCancelled {
			return nil, newError(ErrForbidden, ErrInvalidTransition, "customers can only cancel orders")
		}
	}

	from := order.Status
	if from == to {
		return order, nil
	}
	if to == models.OrderStatusCancelled && from != models.OrderStatusPending {
		return nil, newError(ErrValidation, ErrInvalidTransition,
			"only pending orders can be cancelled, order %d is %s", orderID, from)
	}

	change := repo.StockKeep
	switch {
	case to == models.OrderStatusCancelled:
		change = repo.StockRelease
	case from == models.OrderStatusCancelled:
		change = repo.StockReserve
	}

	updated, err := s.Repo.TransitionOrder(ctx, orderID, from, to, change)
	if err != nil {
		var se *repo.StockError
		switch {
		case errors.As(err, &se):
			return nil, insufficientStock(productName(order, se.ProductID))
		case errors.Is(err, repo.ErrStaleStatus):
			return nil, newError(ErrConflict, ErrInvalidTransition, "order %d was updated concurrently, retry", orderID)
		}
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicOrder, orderID, events.New("order_status_changed", map[string]any{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	}))
	return updated, nil
}

func productName(o *models.Order, productID uint) string {
	for _, it := range o.Items {
		if it.ProductID == productID && it.Product != nil {
			return it.Product.Name
		}
	}
	return "product"
}

// Delete removes an order with its lines. Reserved stock is not returned.
func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	if err := s.Repo.DeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, ErrOrderNotFound, "order %d not found", orderID)
		}
		return err
	}
	events.Emit(ctx, s.Events, events.TopicOrder, orderID, events.New("order_deleted", map[string]any{
		"order_id": orderID,
	}))
	return nil
}
