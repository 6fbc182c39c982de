// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	UserID   uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Items    []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total    Money       `json:"total" gorm:"type:decimal(12,2);not null"`
	Currency string      `json:"currency" gorm:"size:3;not null;default:'EUR'"`
	Status   OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	// Filled by the repository for admin listings.
	User *UserSummary `json:"user,omitempty" gorm:"-"`
}

// OrderItem is the purchase-time snapshot of a cart line. Later product edits never
// change it.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	ProductName string    `json:"product_name" gorm:"size:255;not null"`
	UnitPrice   Money     `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	LineTotal   Money     `json:"line_total" gorm:"type:decimal(12,2);not null"`
	Position    int       `json:"-" gorm:"not null;default:0"`
}

// SnapshotItem captures a product's name and price for a quantity.
func SnapshotItem(p *Product, quantity int) OrderItem {
	return OrderItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		LineTotal:   p.Price.Times(quantity),
	}
}

// SumItems adds line totals without intermediate rounding.
func SumItems(items []OrderItem) Money {
	total := Money{}
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}
