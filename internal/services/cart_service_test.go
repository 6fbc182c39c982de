package services

import (
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
)

func TestAdjustAddsAndRemovesLines(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Fontana", "10.00")

	view, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "30.00", view.Total.Display())
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Fontana", view.Items[0].Product.Name)

	view, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: -3})
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Total.Display())
}

func TestAdjustNegativeOnMissingLineIsNoop(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Candela romana", "4.00")

	view, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: -2})
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAdjustRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Petardo", "1.50")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 0})
	assertKind(t, err, apperror.KindValidation)

	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{Quantity: 1})
	assertKind(t, err, apperror.KindValidation)

	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: uuid.New(), Quantity: 1})
	assertKind(t, err, apperror.KindNotFound)
}

func TestAdjustEnforcesLineLimit(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Candela Romana", "3.00")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: math.MaxInt})
	assertKind(t, err, apperror.KindValidation)

	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: models.MaxLineQuantity - 1})
	require.NoError(t, err)

	_, err = env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
	assertKind(t, err, apperror.KindValidation)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.KeyCartQuantity, appErr.Message)

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, models.MaxLineQuantity, view.Items[0].Quantity)
}

func TestRemoveItemOfDeletedProduct(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	seller := env.seller(t)
	product := env.createProduct(t, seller, "Razzo", "7.25")

	_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, env.products.Delete(t.Context(), seller, product.ID))

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
	assert.Equal(t, "0.00", view.Total.Display())

	view, err = env.carts.RemoveItem(t.Context(), buyer.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = env.carts.RemoveItem(t.Context(), buyer.ID, product.ID)
	assertKind(t, err, apperror.KindNotFound)
}

func TestGetCreatesOneCartUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)

	const workers = 8
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := env.carts.Get(t.Context(), buyer.ID)
			if assert.NoError(t, err) {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.buyer(t)
	product := env.createProduct(t, env.seller(t), "Girandola", "2.00")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.carts.AdjustItem(t.Context(), buyer.ID, &AdjustCartRequest{ProductID: product.ID, Quantity: 1})
			if err != nil {
				assert.True(t, apperror.Is(err, apperror.KindConflict), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	view, err := env.carts.Get(t.Context(), buyer.ID)
	require.NoError(t, err)
	require.Positive(t, succeeded)
	require.Len(t, view.Items, 1)
	assert.Equal(t, succeeded, view.Items[0].Quantity)
	assert.Equal(t, int64(succeeded), view.Version)
}
