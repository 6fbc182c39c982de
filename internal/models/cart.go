// internal/models/cart.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 10000

var ErrQuantityLimit = errors.New("cart line quantity limit exceeded")

type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartItems is stored as a single jsonb document so the whole sequence is replaced
// atomically together with the cart version.
type CartItems []CartItem

func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *CartItems) Scan(value interface{}) error {
	if value == nil {
		*c = CartItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported cart items source type")
	}

	return json.Unmarshal(bytes, c)
}

type Cart struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Items   CartItems `json:"items" gorm:"type:jsonb;not null"`
	Version int64     `json:"version" gorm:"not null;default:0"`
}

func NewCart(userID uuid.UUID) *Cart {
	return &Cart{UserID: userID, Items: CartItems{}}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Adjust applies a relative quantity change for productID. A line reaching zero or less
// is removed; a missing line is only created for a positive delta. A line growing past
// MaxLineQuantity leaves the cart untouched and returns ErrQuantityLimit.
func (c *Cart) Adjust(productID uuid.UUID, delta int) error {
	_, idx, found := lo.FindIndexOf(c.Items, func(item CartItem) bool {
		return item.ProductID == productID
	})

	current := 0
	if found {
		current = c.Items[idx].Quantity
	}
	// Compared without adding so huge deltas cannot wrap around.
	if delta > 0 && delta > MaxLineQuantity-current {
		return ErrQuantityLimit
	}

	if found {
		if delta <= -current {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}
		c.Items[idx].Quantity += delta
		return nil
	}

	if delta > 0 {
		c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: delta})
	}
	return nil
}

// Remove drops the line for productID and reports whether one was present.
func (c *Cart) Remove(productID uuid.UUID) bool {
	before := len(c.Items)
	c.Items = lo.Reject(c.Items, func(item CartItem, _ int) bool {
		return item.ProductID == productID
	})
	return len(c.Items) != before
}

func (c *Cart) Clear() {
	c.Items = CartItems{}
}

func (c *Cart) ProductIDs() []uuid.UUID {
	return lo.Map(c.Items, func(item CartItem, _ int) uuid.UUID {
		return item.ProductID
	})
}

// Clone returns a deep copy so callers can mutate items without touching shared state.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append(CartItems{}, c.Items...)
	return &cp
}
