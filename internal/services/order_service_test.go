package services

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

func TestCheckoutTotalsAndEmptiesCart(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)
	fontana := env.createProduct(t, seller, "Fontana", "10.00")
	petardo := env.createProduct(t, seller, "Petardo", "5.50")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: fontana.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: petardo.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := env.orders.Checkout(t.Context(), buyer)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	order := result.Order
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "EUR", order.Currency)
	assert.True(t, order.Total.Equal(models.MustParseMoney("25.50")))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Fontana", order.Items[0].ProductName)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "20.00", order.Items[0].LineTotal.Display())
	assert.Equal(t, "Petardo", order.Items[1].ProductName)

	body, err := json.Marshal(order)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"total":"25.50"`)

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = env.orders.Checkout(t.Context(), buyer)
	assertKind(t, err, apperror.KindEmptyCart)
	assertCode(t, err, apperror.CodeEmptyCart)

	assert.Contains(t, env.notifier.Events(), "order_placed:"+buyer.Email)
}

func TestCheckoutWithoutCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.Checkout(t.Context(), env.buyer(t))
	assertKind(t, err, apperror.KindEmptyCart)
}

func TestOrderKeepsPurchaseTimeSnapshot(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)
	product := env.createProduct(t, seller, "Vulcano", "12.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	result, err := env.orders.Checkout(t.Context(), buyer)
	require.NoError(t, err)

	newName, newPrice := "Vulcano XL", models.MustParseMoney("99.00")
	_, err = env.products.Update(t.Context(), seller, product.ID, &UpdateProductRequest{Name: &newName, Price: &newPrice}, nil)
	require.NoError(t, err)

	orders, err := env.orders.ListOwn(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, result.Order.ID, orders[0].ID)
	assert.Equal(t, "Vulcano", orders[0].Items[0].ProductName)
	assert.Equal(t, "12.00", orders[0].Items[0].UnitPrice.Display())
}

func TestCheckoutWithDeletedProductLeavesCartIntact(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)
	product := env.createProduct(t, seller, "Bengala", "3.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 4})
	require.NoError(t, err)
	require.NoError(t, env.products.Delete(t.Context(), seller, product.ID))

	_, err = env.orders.Checkout(t.Context(), buyer)
	assertKind(t, err, apperror.KindNotFound)

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)

	orders, err := env.orders.ListOwn(t.Context(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutSurvivesNotificationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("smtp unavailable")
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Cipolla", "8.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := env.orders.Checkout(t.Context(), buyer)
	require.NoError(t, err)
	assert.Equal(t, []string{WarningNotificationFailed}, result.Warnings)

	stored, err := env.store.Orders().GetByID(t.Context(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestConcurrentCheckoutsPlaceOneOrder(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Batteria", "45.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	const workers = 5
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.Checkout(t.Context(), buyer)
			if err != nil {
				assert.True(t, apperror.Is(err, apperror.KindEmptyCart), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			placed++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	orders, err := env.orders.ListOwn(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "90.00", orders[0].Total.Display())
}

func TestCheckoutRacingCartAddsLosesNothing(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)
	base := env.createProduct(t, seller, "Bengala", "4.00")
	extra := env.createProduct(t, seller, "Fumogeno", "6.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: base.ID, Quantity: 1})
	require.NoError(t, err)

	const adders = 6
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		added       int
		placed      *models.Order
		start       = make(chan struct{})
		checkoutErr error
	)
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: extra.ID, Quantity: 1})
			if err != nil {
				assert.True(t, apperror.Is(err, apperror.KindConflict), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			added++
			mu.Unlock()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		result, err := env.orders.Checkout(t.Context(), buyer)
		mu.Lock()
		defer mu.Unlock()
		checkoutErr = err
		if err == nil {
			placed = result.Order
		}
	}()
	close(start)
	wg.Wait()

	require.NoError(t, checkoutErr)
	require.NotNil(t, placed)

	orders, err := env.orders.ListOwn(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	quantityOf := func(items []models.OrderItem, id uuid.UUID) int {
		for _, item := range items {
			if item.ProductID == id {
				return item.Quantity
			}
		}
		return 0
	}
	assert.Equal(t, 1, quantityOf(orders[0].Items, base.ID))

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	inCart := 0
	for _, line := range view.Items {
		assert.Equal(t, extra.ID, line.ProductID, "checked out lines must not survive in the cart")
		inCart += line.Quantity
	}
	assert.Equal(t, added, quantityOf(orders[0].Items, extra.ID)+inCart)
}

func TestCheckoutRejectsUnstorableTotal(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)

	// Eleven full lines at the maximum price overflow decimal(12,2).
	for i := 0; i < 11; i++ {
		product := env.createProduct(t, seller, "Spettacolo "+uuid.NewString()[:8], models.MaxPrice.Display())
		_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: models.MaxLineQuantity})
		require.NoError(t, err)
	}

	_, err := env.orders.Checkout(t.Context(), buyer)
	assertKind(t, err, apperror.KindValidation)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.KeyOrderTotalTooLarge, appErr.Message)

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 11, "a rejected checkout leaves the cart intact")

	orders, err := env.orders.ListOwn(t.Context(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Mortaio", "15.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	result, err := env.orders.Checkout(t.Context(), buyer)
	require.NoError(t, err)
	id := result.Order.ID

	order, err := env.orders.UpdateStatus(t.Context(), id, &UpdateOrderStatusRequest{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.Status)

	_, err = env.orders.UpdateStatus(t.Context(), id, &UpdateOrderStatusRequest{Status: "lost"})
	assertKind(t, err, apperror.KindValidation)

	stored, err := env.store.Orders().GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, stored.Status)

	// Any known status may follow any other.
	order, err = env.orders.UpdateStatus(t.Context(), id, &UpdateOrderStatusRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	_, err = env.orders.UpdateStatus(t.Context(), uuid.New(), &UpdateOrderStatusRequest{Status: "completed"})
	assertKind(t, err, apperror.KindNotFound)
}

func TestListAllAttachesPurchaser(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Stella", "1.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.orders.Checkout(t.Context(), buyer)
	require.NoError(t, err)

	orders, total, err := env.orders.ListAll(t.Context(), repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, orders[0].User)
	assert.Equal(t, buyer.Email, orders[0].User.Email)
}
