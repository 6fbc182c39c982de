package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository/memory"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

const testPassword = "secret123"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			NotificationTimeout: 1,
			MaxUploadMB:         1,
		},
		JWT:   config.JWTConfig{SecretKey: "test-secret", TTLHours: 1},
		Shop:  config.ShopConfig{Name: "Pirotecnica Posca", Currency: "EUR", Locale: "it"},
		Admin: config.AdminConfig{Email: "admin@pirotecnica.local"},
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *recordingNotifier) record(event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) NotifyRegistration(ctx context.Context, user *models.User) error {
	return n.record("registration:" + user.Email)
}

func (n *recordingNotifier) NotifyLicenseApplication(ctx context.Context, user *models.User) error {
	return n.record("license_application:" + user.Email)
}

func (n *recordingNotifier) NotifyLicenseDecision(ctx context.Context, user *models.User, approved bool) error {
	if approved {
		return n.record("license_approved:" + user.Email)
	}
	return n.record("license_rejected:" + user.Email)
}

func (n *recordingNotifier) NotifyOrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) error {
	return n.record("order_placed:" + buyer.Email)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fakeImageStore struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (f *fakeImageStore) SaveProductImage(ctx context.Context, upload Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := LocalURLPrefix + "/products/" + upload.Filename
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeImageStore) DeleteImage(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

type testEnv struct {
	store    *memory.Store
	notifier *recordingNotifier
	images   *fakeImageStore
	tokens   *utils.TokenManager
	access   *AccessControl
	auth     *AuthService
	licenses *LicenseService
	products *ProductService
	carts    *CartService
	orders   *OrderService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	images := &fakeImageStore{}
	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTLHours)
	access := NewAccessControl(store, tokens)

	return &testEnv{
		store:    store,
		notifier: notifier,
		images:   images,
		tokens:   tokens,
		access:   access,
		auth:     NewAuthService(store, tokens, notifier, cfg),
		licenses: NewLicenseService(store, notifier, cfg),
		products: NewProductService(store, access, images),
		carts:    NewCartService(store),
		orders:   NewOrderService(store, notifier, cfg),
		users:    NewUserService(store),
	}
}

// createUser stores a user with testPassword. Sellers are created approved unless
// status says otherwise.
func (e *testEnv) createUser(t *testing.T, role models.Role, status models.LicenseStatus) *models.User {
	t.Helper()

	user := &models.User{
		Name:  gofakeit.Name(),
		Email: strings.ToLower(gofakeit.Email()),
		Role:  role,
	}
	if role == models.RoleSeller {
		user.License = models.License{Type: "P.S.", Number: gofakeit.Numerify("LIC-#####")}
	}
	user.SetLicenseStatus(status)
	require.NoError(t, user.SetPassword(testPassword))
	require.NoError(t, e.store.Users().Create(t.Context(), user))
	return user
}

func (e *testEnv) buyer(t *testing.T) *models.User {
	return e.createUser(t, models.RoleBuyer, models.LicenseStatusNotApplicable)
}

func (e *testEnv) seller(t *testing.T) *models.User {
	return e.createUser(t, models.RoleSeller, models.LicenseStatusApproved)
}

func (e *testEnv) admin(t *testing.T) *models.User {
	return e.createUser(t, models.RoleAdmin, models.LicenseStatusNotApplicable)
}

func (e *testEnv) createProduct(t *testing.T, seller *models.User, name, price string) *models.Product {
	t.Helper()

	p := models.MustParseMoney(price)
	product, err := e.products.Create(t.Context(), seller, &CreateProductRequest{
		Name:     name,
		Price:    &p,
		Category: "fuochi",
	}, nil)
	require.NoError(t, err)
	return product
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind.String(), apperror.KindOf(err).String(), "error: %v", err)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected an *apperror.Error, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestNotifyLogsAndReturnsFailure(t *testing.T) {
	boom := errors.New("smtp down")
	err := notify(t.Context(), 0, "test", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNotifyIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := notify(ctx, 0, "test", func(ctx context.Context) error {
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestUnknownUserIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Profile(t.Context(), uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}
