package transport

import (
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" {
		return fieldErr("email", "is required")
	}
	if r.Password == "" {
		return fieldErr("password", "is required")
	}
	return nil
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Name == "" {
		return fieldErr("name", "is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || strings.ContainsAny(r.Email, "<> ") {
		return fieldErr("email", "is not a valid address")
	}
	if len(r.Password) < 6 {
		return fieldErr("password", "must be at least 6 characters")
	}
	if len(r.Password) > 72 {
		return fieldErr("password", "must be at most 72 bytes")
	}
	return nil
}

type UpdateAddressRequest struct {
	UserID  *uint  `json:"user_id"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (r *UpdateAddressRequest) Validate() error {
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Address == "" {
		return fieldErr("address", "is required")
	}
	if r.Phone == "" {
		return fieldErr("phone", "is required")
	}
	return nil
}

type CreateProductRequest struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
	Image    string   `json:"image"`
	IsActive *bool    `json:"is_active"`
}

func (r *CreateProductRequest) Validate() error {
	return validateProduct(&r.Name, r.Price, r.Stock)
}

type UpdateProductRequest struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
	Image    string   `json:"image"`
	IsActive *bool    `json:"is_active"`
}

func (r *UpdateProductRequest) Validate() error {
	if r.ID == 0 {
		return fieldErr("id", "is required")
	}
	return validateProduct(&r.Name, r.Price, r.Stock)
}

func validateProduct(name *string, price *float64, stock *int) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return fieldErr("name", "is required")
	}
	if price == nil {
		return fieldErr("price", "is required")
	}
	if *price < 0 {
		return fieldErr("price", "must be >= 0")
	}
	if stock == nil {
		return fieldErr("stock", "is required")
	}
	if *stock < 0 {
		return fieldErr("stock", "must be >= 0")
	}
	return nil
}

type DeleteProductRequest struct {
	ID uint `json:"id"`
}

func (r *DeleteProductRequest) Validate() error {
	if r.ID == 0 {
		return fieldErr("id", "is required")
	}
	return nil
}

type AddToCartRequest struct {
	UserID    *uint `json:"user_id"`
	ProductID uint  `json:"product_id"`
}

func (r *AddToCartRequest) Validate() error {
	if r.ProductID == 0 {
		return fieldErr("product_id", "is required")
	}
	return nil
}

type UpdateQuantityRequest struct {
	CartItemID uint `json:"cartItemId"`
	Quantity   *int `json:"quantity"`
}

func (r *UpdateQuantityRequest) Validate() error {
	if r.CartItemID == 0 {
		return fieldErr("cartItemId", "is required")
	}
	if r.Quantity == nil {
		return fieldErr("quantity", "is required")
	}
	return nil
}

type OrderItemRequest struct {
	ProductID  uint     `json:"productId"`
	Quantity   int      `json:"quantity"`
	Price      *float64 `json:"price"`
	CartItemID *uint    `json:"cartItemId"`
}

// CreateOrderRequest leaves an empty item list to the checkout, which reports
// it after the address and product checks.
type CreateOrderRequest struct {
	UserID  *uint              `json:"user_id"`
	Address *string            `json:"address"`
	Phone   *string            `json:"phone"`
	Items   []OrderItemRequest `json:"items"`
}

func (r *CreateOrderRequest) Validate() error {
	for i := range r.Items {
		it := &r.Items[i]
		if it.ProductID == 0 {
			return fieldErr("items.productId", "is required")
		}
		if it.Quantity <= 0 {
			return fieldErr("items.quantity", "must be > 0")
		}
		if it.Price == nil {
			return fieldErr("items.price", "is required")
		}
		if *it.Price < 0 {
			return fieldErr("items.price", "must be >= 0")
		}
		if it.CartItemID != nil && *it.CartItemID == 0 {
			return fieldErr("items.cartItemId", "must be a positive id")
		}
	}
	return nil
}

type UpdateStatusRequest struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if r.OrderID == 0 {
		return fieldErr("order_id", "is required")
	}
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if r.Status == "" {
		return fieldErr("status", "is required")
	}
	return nil
}

type UserSummary struct {
	ID   uint        `json:"id"`
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

type SignupResponse struct {
	Message string `json:"message"`
	UserID  uint   `json:"user_id"`
}

type ContactResponse struct {
	ID      uint   `json:"id"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func NewContact(u *models.User) ContactResponse {
	return ContactResponse{ID: u.ID, Address: u.Address, Phone: u.Phone}
}

type ProductResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
	Image string  `json:"image"`
}

func NewProducts(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ProductResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, Image: p.Image})
	}
	return out
}

type IDResponse struct {
	ID uint `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CartLineResponse struct {
	CartItemID uint    `json:"cartItemId"`
	ProductID  uint    `json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Stock      int     `json:"stock"`
	Image      string  `json:"image"`
}

func NewCartLines(lines []repo.CartLine) []CartLineResponse {
	out := make([]CartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLineResponse(l))
	}
	return out
}

type CartItemResponse struct {
	CartItemID uint    `json:"cartItemId"`
	ProductID  uint    `json:"productId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

func NewCartItem(it *models.CartItem) CartItemResponse {
	return CartItemResponse{CartItemID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type OrderProduct struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type OrderLineResponse struct {
	ID       uint         `json:"id"`
	Quantity int          `json:"quantity"`
	Price    float64      `json:"price"`
	Product  OrderProduct `json:"product"`
}

type OrderResponse struct {
	ID        uint                `json:"id"`
	UserID    uint                `json:"user_id"`
	Status    models.OrderStatus  `json:"status"`
	Total     float64             `json:"total"`
	Address   string              `json:"address"`
	Phone     string              `json:"phone"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []OrderLineResponse `json:"items"`
}

func NewOrder(o *models.Order) OrderResponse {
	items := make([]OrderLineResponse, 0, len(o.Items))
	for _, it := range o.Items {
		line := OrderLineResponse{ID: it.ID, Quantity: it.Quantity, Price: it.Price, Product: OrderProduct{ID: it.ProductID}}
		if it.Product != nil {
			line.Product.Name = it.Product.Name
			line.Product.Image = it.Product.Image
		}
		items = append(items, line)
	}
	return OrderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Total:     o.Total,
		Address:   o.Address,
		Phone:     o.Phone,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}

func NewOrders(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrder(&orders[i]))
	}
	return out
}

type OrderUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminOrderResponse struct {
	OrderResponse
	User *OrderUser `json:"user"`
}

func NewAdminOrders(orders []models.Order, users map[uint]models.User) []AdminOrderResponse {
	out := make([]AdminOrderResponse, 0, len(orders))
	for i := range orders {
		row := AdminOrderResponse{OrderResponse: NewOrder(&orders[i])}
		if u, ok := users[orders[i].UserID]; ok {
			row.User = &OrderUser{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		out = append(out, row)
	}
	return out
}

type PathResponse struct {
	Path string `json:"path"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
