// internal/models/money.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// MaxPrice bounds a unit price so a full cart line stays storable.
	MaxPrice = MustParseMoney("99999.99")

	// maxStoredAmount is the largest decimal(12,2) value.
	maxStoredAmount = MustParseMoney("9999999999.99")
)

// Money is an exact decimal amount. Arithmetic never rounds; JSON output is always
// rendered with two decimal places.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MustParseMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Times(quantity int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Storable reports whether the amount fits the decimal(12,2) columns.
func (m Money) Storable() bool {
	return m.Abs().LessThanOrEqual(maxStoredAmount.Decimal)
}

// Display is the presentation form, rounded half away from zero to cents.
func (m Money) Display() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Display())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// UnmarshalParam lets gin bind form fields into Money.
func (m *Money) UnmarshalParam(param string) error {
	parsed, err := ParseMoney(param)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Value()
}

func (m *Money) Scan(value interface{}) error {
	return m.Decimal.Scan(value)
}
