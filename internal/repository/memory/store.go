// Package memory is an in-process repository.Store. It backs DB_DRIVER=memory and
// the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

type state struct {
	users    map[uuid.UUID]models.User
	products map[uuid.UUID]models.Product
	carts    map[uuid.UUID]models.Cart // keyed by user id
	orders   map[uuid.UUID]models.Order
	audit    []models.AuditLog
	seq      map[uuid.UUID]int64
	nextSeq  int64
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]models.User),
		products: make(map[uuid.UUID]models.Product),
		carts:    make(map[uuid.UUID]models.Cart),
		orders:   make(map[uuid.UUID]models.Order),
		seq:      make(map[uuid.UUID]int64),
	}
}

func (s *state) clone() *state {
	cp := &state{
		users:    make(map[uuid.UUID]models.User, len(s.users)),
		products: make(map[uuid.UUID]models.Product, len(s.products)),
		carts:    make(map[uuid.UUID]models.Cart, len(s.carts)),
		orders:   make(map[uuid.UUID]models.Order, len(s.orders)),
		audit:    append([]models.AuditLog(nil), s.audit...),
		seq:      make(map[uuid.UUID]int64, len(s.seq)),
		nextSeq:  s.nextSeq,
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = copyProduct(v)
	}
	for k, v := range s.carts {
		cp.carts[k] = *v.Clone()
	}
	for k, v := range s.orders {
		cp.orders[k] = copyOrder(v)
	}
	for k, v := range s.seq {
		cp.seq[k] = v
	}
	return cp
}

// stamp fills the bookkeeping fields a database would.
func (s *state) stamp(b *models.BaseModel) {
	b.EnsureID()
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	s.nextSeq++
	s.seq[b.ID] = s.nextSeq
}

// newestFirst orders ids by reverse insertion.
func (s *state) newestFirst(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] > s.seq[ids[j]] })
}

func (s *state) oldestFirst(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] < s.seq[ids[j]] })
}

// Store guards all state with one mutex. A transaction holds the mutex for its whole
// callback and restores a snapshot when the callback fails.
type Store struct {
	mu   *sync.Mutex
	root **state
	inTx bool
}

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, root: &st}
}

func (s *Store) Users() repository.UserRepository         { return &userRepository{s} }
func (s *Store) Products() repository.ProductRepository   { return &productRepository{s} }
func (s *Store) Carts() repository.CartRepository         { return &cartRepository{s} }
func (s *Store) Orders() repository.OrderRepository       { return &orderRepository{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository { return &auditLogRepository{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.root).clone()
	defer func() {
		if p := recover(); p != nil {
			*s.root = snapshot
			panic(p)
		}
		if err != nil {
			*s.root = snapshot
		}
	}()

	return fn(&Store{mu: s.mu, root: s.root, inTx: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// AuditEntries returns a copy of the recorded audit log.
func (s *Store) AuditEntries() []models.AuditLog {
	var out []models.AuditLog
	s.view(func(st *state) {
		out = append(out, st.audit...)
	})
	return out
}

func (s *Store) view(fn func(st *state)) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(*s.root)
}

func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.root)
}

func copyProduct(p models.Product) models.Product {
	p.Tags = append([]string(nil), p.Tags...)
	if p.Seller != nil {
		seller := *p.Seller
		p.Seller = &seller
	}
	return p
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.User != nil {
		u := *o.User
		o.User = &u
	}
	return o
}

func page[T any](items []T, p repository.Page) []T {
	if !p.Enabled() {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return items[start:end]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.s.update(ctx, func(st *state) error {
		email := normalizeEmail(user.Email)
		for _, existing := range st.users {
			if normalizeEmail(existing.Email) == email {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicate, email)
			}
		}
		st.stamp(&user.BaseModel)
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var (
		user models.User
		ok   bool
	)
	r.s.view(func(st *state) { user, ok = st.users[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, ctx.Err()
}

// GetByIDForUpdate needs no lock of its own: transactions already hold the store mutex.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		user models.User
		ok   bool
	)
	email = normalizeEmail(email)
	r.s.view(func(st *state) {
		user, ok = lo.Find(lo.Values(st.users), func(u models.User) bool {
			return normalizeEmail(u.Email) == email
		})
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, ctx.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.s.update(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repository.ErrNotFound
		}
		user.UpdatedAt = time.Now()
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, p repository.Page) ([]models.User, int64, error) {
	var users []models.User
	r.s.view(func(st *state) {
		ids := lo.Keys(st.users)
		st.newestFirst(ids)
		users = lo.Map(ids, func(id uuid.UUID, _ int) models.User { return st.users[id] })
	})
	return page(users, p), int64(len(users)), ctx.Err()
}

func (r *userRepository) ListByLicenseStatus(ctx context.Context, status models.LicenseStatus) ([]models.User, error) {
	var users []models.User
	r.s.view(func(st *state) {
		ids := lo.Keys(st.users)
		st.oldestFirst(ids)
		for _, id := range ids {
			if u := st.users[id]; u.LicenseStatus == status {
				users = append(users, u)
			}
		}
	})
	return users, ctx.Err()
}

type productRepository struct{ s *Store }

func withSeller(st *state, p models.Product) *models.Product {
	p = copyProduct(p)
	if seller, ok := st.users[p.SellerID]; ok {
		p.Seller = models.SummaryOf(&seller)
	}
	return &p
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.s.update(ctx, func(st *state) error {
		st.stamp(&product.BaseModel)
		st.products[product.ID] = copyProduct(*product)
		if seller, ok := st.users[product.SellerID]; ok {
			product.Seller = models.SummaryOf(&seller)
		}
		return nil
	})
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product *models.Product
	r.s.view(func(st *state) {
		if p, ok := st.products[id]; ok {
			product = withSeller(st, p)
		}
	})
	if product == nil {
		return nil, repository.ErrNotFound
	}
	return product, ctx.Err()
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	found := make(map[uuid.UUID]*models.Product, len(ids))
	r.s.view(func(st *state) {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				found[id] = withSeller(st, p)
			}
		}
	})
	return found, ctx.Err()
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.s.update(ctx, func(st *state) error {
		stored, ok := st.products[product.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stored.Name = product.Name
		stored.Description = product.Description
		stored.Price = product.Price
		stored.Category = product.Category
		stored.Image = product.Image
		stored.Tags = append([]string(nil), product.Tags...)
		stored.UpdatedAt = time.Now()
		product.UpdatedAt = stored.UpdatedAt
		st.products[product.ID] = stored
		return nil
	})
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.update(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.products, id)
		return nil
	})
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	var products []models.Product
	r.s.view(func(st *state) {
		ids := lo.Keys(st.products)
		st.newestFirst(ids)
		for _, id := range ids {
			p := st.products[id]
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.SellerID != nil && p.SellerID != *filter.SellerID {
				continue
			}
			products = append(products, *withSeller(st, p))
		}
	})
	return page(products, filter.Page), int64(len(products)), ctx.Err()
}

type cartRepository struct{ s *Store }

func (r *cartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	r.s.view(func(st *state) {
		if c, ok := st.carts[userID]; ok {
			cart = c.Clone()
		}
	})
	if cart == nil {
		return nil, repository.ErrNotFound
	}
	return cart, ctx.Err()
}

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.s.update(ctx, func(st *state) error {
		if _, ok := st.carts[cart.UserID]; ok {
			return fmt.Errorf("%w: cart for user %s", repository.ErrDuplicate, cart.UserID)
		}
		if cart.Items == nil {
			cart.Items = models.CartItems{}
		}
		st.stamp(&cart.BaseModel)
		st.carts[cart.UserID] = *cart.Clone()
		return nil
	})
}

func (r *cartRepository) SaveItems(ctx context.Context, cart *models.Cart) error {
	return r.s.update(ctx, func(st *state) error {
		stored, ok := st.carts[cart.UserID]
		if !ok || stored.ID != cart.ID || stored.Version != cart.Version {
			return repository.ErrVersionConflict
		}
		cart.Version++
		cart.UpdatedAt = time.Now()
		st.carts[cart.UserID] = *cart.Clone()
		return nil
	})
}

type orderRepository struct{ s *Store }

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.s.update(ctx, func(st *state) error {
		st.stamp(&order.BaseModel)
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			order.Items[i].Position = i
			st.stamp(&order.Items[i].BaseModel)
		}
		st.orders[order.ID] = copyOrder(*order)
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var (
		order models.Order
		ok    bool
	)
	r.s.view(func(st *state) {
		order, ok = st.orders[id]
		order = copyOrder(order)
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &order, ctx.Err()
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	r.s.view(func(st *state) {
		ids := lo.Keys(st.orders)
		st.newestFirst(ids)
		for _, id := range ids {
			if o := st.orders[id]; o.UserID == userID {
				orders = append(orders, copyOrder(o))
			}
		}
	})
	return orders, ctx.Err()
}

func (r *orderRepository) List(ctx context.Context, p repository.Page) ([]models.Order, int64, error) {
	var orders []models.Order
	r.s.view(func(st *state) {
		ids := lo.Keys(st.orders)
		st.newestFirst(ids)
		for _, id := range ids {
			o := copyOrder(st.orders[id])
			if u, ok := st.users[o.UserID]; ok {
				o.User = models.SummaryOf(&u)
			}
			orders = append(orders, o)
		}
	})
	return page(orders, p), int64(len(orders)), ctx.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	return r.s.update(ctx, func(st *state) error {
		order, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		order.Status = status
		order.UpdatedAt = time.Now()
		st.orders[id] = order
		return nil
	})
}

type auditLogRepository struct{ s *Store }

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.s.update(ctx, func(st *state) error {
		st.stamp(&entry.BaseModel)
		st.audit = append(st.audit, *entry)
		return nil
	})
}
