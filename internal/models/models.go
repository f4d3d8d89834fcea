package models

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name      string    `gorm:"not null"                        json:"name"`
	Email     string    `gorm:"uniqueIndex;not null"            json:"email"`
	Password  string    `gorm:"not null"                        json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null"       json:"role"`
	Address   string    `gorm:"not null;default:''"             json:"address"`
	Phone     string    `gorm:"not null;default:''"             json:"phone"`
	CreatedAt time.Time `                                       json:"created_at"`

	Cart   *Cart   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Orders []Order `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// Product.IsActive has no column default: gorm skips zero values on insert, so
// callers always set it.
type Product struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string    `gorm:"not null"                  json:"name"`
	Price     float64   `gorm:"not null;check:price >= 0" json:"price"`
	Stock     int       `gorm:"not null;check:stock >= 0" json:"stock"`
	Image     string    `gorm:"not null;default:''"       json:"image"`
	IsActive  bool      `gorm:"not null"                  json:"is_active"`
	CreatedAt time.Time `                                 json:"created_at"`
}

func (Product) TableName() string { return "product" }

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"        json:"user_id"`
	CreatedAt time.Time  `                                   json:"created_at"`
	UpdatedAt time.Time  `                                   json:"updated_at"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"                 json:"id"`
	CartID    uint    `gorm:"not null;uniqueIndex:idx_cart_product"    json:"cart_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_product"    json:"product_id"`
	Quantity  int     `gorm:"not null;default:1;check:quantity >= 1"  json:"quantity"`
	Price     float64 `gorm:"not null"                                 json:"price"`
}

func (CartItem) TableName() string { return "carts_items" }

type Order struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID    uint        `gorm:"index;not null"              json:"user_id"`
	Status    OrderStatus `gorm:"type:varchar(16);not null"   json:"status"`
	Total     float64     `gorm:"not null"                    json:"total"`
	Address   string      `gorm:"not null"                    json:"address"`
	Phone     string      `gorm:"not null"                    json:"phone"`
	CreatedAt time.Time   `gorm:"index"                       json:"created_at"`
	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint     `gorm:"index;not null"           json:"order_id"`
	ProductID uint     `gorm:"index;not null"           json:"product_id"`
	Quantity  int      `gorm:"not null"                 json:"quantity"`
	Price     float64  `gorm:"not null"                 json:"price"`
	Product   *Product `gorm:"foreignKey:ProductID"     json:"product,omitempty"`
}

func (OrderItem) TableName() string { return "orders_items" }

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}}
}
