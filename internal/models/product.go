// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	SellerID    uuid.UUID      `json:"seller_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       Money          `json:"price" gorm:"type:decimal(12,2);not null"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Image       string         `json:"image,omitempty" gorm:"size:512"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`

	// Filled by the repository from the users table.
	Seller *UserSummary `json:"seller,omitempty" gorm:"-"`
}

// UserSummary is the public projection of a user attached to listings.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func SummaryOf(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
