package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdjust(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		start CartItems
		id    uuid.UUID
		delta int
		want  CartItems
		err   error
	}{
		{
			name:  "append new line",
			start: CartItems{},
			id:    p1,
			delta: 2,
			want:  CartItems{{ProductID: p1, Quantity: 2}},
		},
		{
			name:  "increase existing line",
			start: CartItems{{ProductID: p1, Quantity: 2}},
			id:    p1,
			delta: 3,
			want:  CartItems{{ProductID: p1, Quantity: 5}},
		},
		{
			name:  "reaching zero removes the line",
			start: CartItems{{ProductID: p1, Quantity: 3}, {ProductID: p2, Quantity: 1}},
			id:    p1,
			delta: -3,
			want:  CartItems{{ProductID: p2, Quantity: 1}},
		},
		{
			name:  "going negative removes the line",
			start: CartItems{{ProductID: p1, Quantity: 1}},
			id:    p1,
			delta: -5,
			want:  CartItems{},
		},
		{
			name:  "negative delta on absent line is a no-op",
			start: CartItems{{ProductID: p2, Quantity: 1}},
			id:    p1,
			delta: -1,
			want:  CartItems{{ProductID: p2, Quantity: 1}},
		},
		{
			name:  "filling a line up to the limit",
			start: CartItems{{ProductID: p1, Quantity: 1}},
			id:    p1,
			delta: MaxLineQuantity - 1,
			want:  CartItems{{ProductID: p1, Quantity: MaxLineQuantity}},
		},
		{
			name:  "passing the limit leaves the line untouched",
			start: CartItems{{ProductID: p1, Quantity: 1}},
			id:    p1,
			delta: MaxLineQuantity,
			want:  CartItems{{ProductID: p1, Quantity: 1}},
			err:   ErrQuantityLimit,
		},
		{
			name:  "huge delta cannot wrap around",
			start: CartItems{{ProductID: p1, Quantity: 1}},
			id:    p1,
			delta: math.MaxInt,
			want:  CartItems{{ProductID: p1, Quantity: 1}},
			err:   ErrQuantityLimit,
		},
		{
			name:  "new line above the limit",
			start: CartItems{},
			id:    p2,
			delta: MaxLineQuantity + 1,
			want:  CartItems{},
			err:   ErrQuantityLimit,
		},
		{
			name:  "huge negative delta removes the line",
			start: CartItems{{ProductID: p1, Quantity: 7}},
			id:    p1,
			delta: math.MinInt,
			want:  CartItems{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := &Cart{Items: tt.start}
			err := cart.Adjust(tt.id, tt.delta)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.ElementsMatch(t, tt.want, cart.Items)
			for _, item := range cart.Items {
				assert.Positive(t, item.Quantity)
			}
		})
	}
}

func TestCartAdjustKeepsOrder(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	cart := NewCart(uuid.New())

	cart.Adjust(p1, 1)
	cart.Adjust(p2, 1)
	cart.Adjust(p3, 1)
	cart.Adjust(p2, -1)

	assert.Equal(t, []uuid.UUID{p1, p3}, cart.ProductIDs())
}

func TestCartRemoveAndClone(t *testing.T) {
	p1 := uuid.New()
	cart := NewCart(uuid.New())
	cart.Adjust(p1, 4)

	clone := cart.Clone()
	assert.True(t, clone.Remove(p1))
	assert.False(t, clone.Remove(p1))
	assert.True(t, clone.IsEmpty())
	assert.Len(t, cart.Items, 1, "clone must not share items")
}

func TestCartItemsValueNeverNull(t *testing.T) {
	var items CartItems
	v, err := items.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var scanned CartItems
	require.NoError(t, scanned.Scan(`[{"product_id":"`+uuid.Nil.String()+`","quantity":2}]`))
	assert.Equal(t, 2, scanned[0].Quantity)
}

func TestMoneyPresentation(t *testing.T) {
	total := MustParseMoney("10.00").Times(2).Add(MustParseMoney("5.5"))
	assert.Equal(t, "25.50", total.Display())

	out, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{total})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"25.50"}`, string(out))

	var in struct {
		Price Money `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":12.3}`), &in))
	assert.True(t, in.Price.Equal(MustParseMoney("12.30")))
}

func TestMoneySumHasNoFloatDrift(t *testing.T) {
	items := make([]OrderItem, 0, 1000)
	p := &Product{Name: "sparkler", Price: MustParseMoney("0.10")}
	for i := 0; i < 1000; i++ {
		items = append(items, SnapshotItem(p, 1))
	}
	assert.Equal(t, "100.00", SumItems(items).Display())
}

func TestMoneyStorable(t *testing.T) {
	assert.True(t, MustParseMoney("9999999999.99").Storable())
	assert.False(t, MustParseMoney("10000000000.00").Storable())
	assert.True(t, MaxPrice.Times(MaxLineQuantity).Storable(), "a full line at the maximum price must fit")
}
