package order

import (
	"time"

	"github.com/google/uuid"
)

// Order is a storefront purchase as shown on the store dashboard. Orders are
// created by the storefront checkout; this service only reads them.
type Order struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	StoreID    uuid.UUID   `json:"storeId" db:"store_id"`
	IsPaid     bool        `json:"isPaid" db:"is_paid"`
	Phone      string      `json:"phone" db:"phone"`
	Address    string      `json:"address" db:"address"`
	Items      []OrderItem `json:"orderItems" db:"-"`
	TotalPrice float64     `json:"totalPrice" db:"-"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is one product in an order, with the product's name and current
// price joined in.
type OrderItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"orderId" db:"order_id"`
	ProductID   uuid.UUID `json:"productId" db:"product_id"`
	ProductName string    `json:"name" db:"product_name"`
	Price       float64   `json:"price" db:"price"`
}

// Filter narrows an order listing. A nil IsPaid returns every order.
type Filter struct {
	IsPaid *bool
}

// total sums the item prices. Each item is a single unit.
func (o *Order) total() {
	o.TotalPrice = 0
	for _, it := range o.Items {
		o.TotalPrice += it.Price
	}
}
