// Package repotest holds the behaviour every repository.Store implementation must
// share. Each implementation runs StoreSuite from its own tests.
package repotest

import (
	"errors"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

// StoreSuite assumes other tests may share the store, so listings are checked for
// containment rather than exact totals.
type StoreSuite struct {
	suite.Suite
	Store repository.Store
}

func FakeUser(role models.Role) *models.User {
	user := &models.User{
		Name:  gofakeit.Name(),
		Email: strings.ToLower(gofakeit.Email()),
		Role:  role,
	}
	user.SetLicenseStatus(models.InitialLicenseStatus(role == models.RoleSeller))
	_ = user.SetPassword(gofakeit.Password(true, true, true, false, false, 12))
	return user
}

func FakeProduct(sellerID uuid.UUID) *models.Product {
	return &models.Product{
		SellerID:    sellerID,
		Name:        gofakeit.ProductName(),
		Description: gofakeit.ProductDescription(),
		Price:       models.NewMoney(decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2)),
		Category:    gofakeit.ProductCategory(),
		Tags:        []string{gofakeit.Word(), gofakeit.Word()},
	}
}

func (s *StoreSuite) createUser(role models.Role) *models.User {
	user := FakeUser(role)
	s.Require().NoError(s.Store.Users().Create(s.T().Context(), user))
	return user
}

func (s *StoreSuite) createProduct(sellerID uuid.UUID) *models.Product {
	product := FakeProduct(sellerID)
	s.Require().NoError(s.Store.Products().Create(s.T().Context(), product))
	return product
}

func (s *StoreSuite) TestUserCreateAndLookup() {
	t := s.T()
	ctx := t.Context()

	user := s.createUser(models.RoleSeller)
	require.NotEqual(t, uuid.Nil, user.ID)

	byID, err := s.Store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, models.LicenseStatusPendingApproval, byID.LicenseStatus)
	assert.False(t, byID.LicenseApproved)

	byEmail, err := s.Store.Users().GetByEmail(ctx, strings.ToUpper(user.Email))
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = s.Store.Users().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func (s *StoreSuite) TestUserDuplicateEmail() {
	t := s.T()
	user := s.createUser(models.RoleBuyer)

	dup := FakeUser(models.RoleBuyer)
	dup.Email = user.Email
	err := s.Store.Users().Create(t.Context(), dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func (s *StoreSuite) TestUserUpdateAndPendingListing() {
	t := s.T()
	ctx := t.Context()

	pending := s.createUser(models.RoleSeller)
	approved := s.createUser(models.RoleSeller)
	approved.SetLicenseStatus(models.LicenseStatusApproved)
	require.NoError(t, s.Store.Users().Update(ctx, approved))

	users, err := s.Store.Users().ListByLicenseStatus(ctx, models.LicenseStatusPendingApproval)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		ids[u.ID] = true
	}
	assert.True(t, ids[pending.ID])
	assert.False(t, ids[approved.ID])

	reloaded, err := s.Store.Users().GetByID(ctx, approved.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.LicenseApproved)

	all, total, err := s.Store.Users().List(ctx, repository.Page{Number: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.GreaterOrEqual(t, total, int64(2))
}

func (s *StoreSuite) TestProductLifecycle() {
	t := s.T()
	ctx := t.Context()

	seller := s.createUser(models.RoleSeller)
	product := s.createProduct(seller.ID)

	got, err := s.Store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Seller)
	assert.Equal(t, seller.Name, got.Seller.Name)
	assert.Equal(t, seller.Email, got.Seller.Email)
	assert.True(t, product.Price.Equal(got.Price))
	assert.Equal(t, []string(product.Tags), []string(got.Tags))

	got.Name = "Fontana luminosa"
	got.Price = models.MustParseMoney("12.50")
	require.NoError(t, s.Store.Products().Update(ctx, got))

	updated, err := s.Store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fontana luminosa", updated.Name)
	assert.Equal(t, "12.50", updated.Price.Display())

	require.NoError(t, s.Store.Products().Delete(ctx, product.ID))
	_, err = s.Store.Products().GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Store.Products().Delete(ctx, product.ID), repository.ErrNotFound)
	assert.ErrorIs(t, s.Store.Products().Update(ctx, got), repository.ErrNotFound)
}

func (s *StoreSuite) TestProductListAndBatchLookup() {
	t := s.T()
	ctx := t.Context()

	seller := s.createUser(models.RoleSeller)
	category := "cat-" + uuid.NewString()

	first := FakeProduct(seller.ID)
	first.Category = category
	second := FakeProduct(seller.ID)
	second.Category = category
	require.NoError(t, s.Store.Products().Create(ctx, first))
	require.NoError(t, s.Store.Products().Create(ctx, second))
	gone := s.createProduct(seller.ID)
	require.NoError(t, s.Store.Products().Delete(ctx, gone.ID))

	products, total, err := s.Store.Products().List(ctx, repository.ProductFilter{Category: category})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, products, 2)
	for _, p := range products {
		require.NotNil(t, p.Seller)
		assert.Equal(t, seller.ID, p.Seller.ID)
	}

	paged, total, err := s.Store.Products().List(ctx, repository.ProductFilter{
		Category: category,
		Page:     repository.Page{Number: 2, Limit: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, paged, 1)

	found, err := s.Store.Products().GetByIDs(ctx, []uuid.UUID{first.ID, second.ID, gone.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, first.ID)
	assert.NotContains(t, found, gone.ID)
}

func (s *StoreSuite) TestCartCompareAndSwap() {
	t := s.T()
	ctx := t.Context()

	buyer := s.createUser(models.RoleBuyer)
	cart := models.NewCart(buyer.ID)
	require.NoError(t, s.Store.Carts().Create(ctx, cart))

	err := s.Store.Carts().Create(ctx, models.NewCart(buyer.ID))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	stale, err := s.Store.Carts().GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, stale.IsEmpty())

	productID := uuid.New()
	cart.Adjust(productID, 3)
	require.NoError(t, s.Store.Carts().SaveItems(ctx, cart))
	assert.Equal(t, stale.Version+1, cart.Version)

	stale.Adjust(uuid.New(), 1)
	assert.ErrorIs(t, s.Store.Carts().SaveItems(ctx, stale), repository.ErrVersionConflict)

	reloaded, err := s.Store.Carts().GetByUserID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.Version, reloaded.Version)
	assert.Empty(t, cmp.Diff(cart.Items, reloaded.Items, cmpopts.EquateEmpty()))

	_, err = s.Store.Carts().GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func (s *StoreSuite) TestOrderLifecycle() {
	t := s.T()
	ctx := t.Context()

	buyer := s.createUser(models.RoleBuyer)
	seller := s.createUser(models.RoleSeller)
	a := s.createProduct(seller.ID)
	b := s.createProduct(seller.ID)

	items := []models.OrderItem{models.SnapshotItem(a, 2), models.SnapshotItem(b, 1)}
	order := &models.Order{
		UserID:   buyer.ID,
		Items:    items,
		Total:    models.SumItems(items),
		Currency: "EUR",
		Status:   models.OrderStatusPending,
	}
	require.NoError(t, s.Store.Orders().Create(ctx, order))

	got, err := s.Store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, a.ID, got.Items[0].ProductID)
	assert.Equal(t, a.Name, got.Items[0].ProductName)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, order.Total.Equal(got.Total))
	assert.Equal(t, models.OrderStatusPending, got.Status)

	require.NoError(t, s.Store.Orders().UpdateStatus(ctx, order.ID, models.OrderStatusShipped))
	assert.ErrorIs(t, s.Store.Orders().UpdateStatus(ctx, uuid.New(), models.OrderStatusShipped), repository.ErrNotFound)

	own, err := s.Store.Orders().ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, models.OrderStatusShipped, own[0].Status)
	assert.Len(t, own[0].Items, 2)

	all, _, err := s.Store.Orders().List(ctx, repository.Page{})
	require.NoError(t, err)
	var listed *models.Order
	for i := range all {
		if all[i].ID == order.ID {
			listed = &all[i]
		}
	}
	require.NotNil(t, listed)
	require.NotNil(t, listed.User)
	assert.Equal(t, buyer.Email, listed.User.Email)
}

func (s *StoreSuite) TestWithTxRollsBack() {
	t := s.T()
	ctx := t.Context()

	user := FakeUser(models.RoleBuyer)
	boom := errors.New("boom")

	err := s.Store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Store.Users().GetByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	committed := FakeUser(models.RoleBuyer)
	require.NoError(t, s.Store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Users().Create(ctx, committed)
	}))
	_, err = s.Store.Users().GetByID(ctx, committed.ID)
	assert.NoError(t, err)
}

func (s *StoreSuite) TestLockedUpdatesAreNotLost() {
	t := s.T()
	ctx := t.Context()
	user := s.createUser(models.RoleBuyer)
	original := user.Name

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Store.WithTx(ctx, func(tx repository.Store) error {
				u, err := tx.Users().GetByIDForUpdate(ctx, user.ID)
				if err != nil {
					return err
				}
				u.Name += "+"
				return tx.Users().Update(ctx, u)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := s.Store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, original+strings.Repeat("+", writers), stored.Name)

	_, err = s.Store.Users().GetByIDForUpdate(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func (s *StoreSuite) TestAuditLog() {
	t := s.T()
	userID := uuid.New()
	entry := &models.AuditLog{
		UserID:       &userID,
		Action:       "POST /api/cart/add",
		ResourceType: "cart",
		NewValues:    models.JSONB{"quantity": float64(2)},
		Status:       200,
		IPAddress:    "127.0.0.1",
	}
	require.NoError(t, s.Store.AuditLogs().Create(t.Context(), entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.Store.Ping(s.T().Context()))
}
