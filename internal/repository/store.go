// internal/repository/store.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore implements Store on a gorm handle. Inside WithTx the handle is the
// transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository         { return &userRepository{db: s.db} }
func (s *GormStore) Products() ProductRepository   { return &productRepository{db: s.db} }
func (s *GormStore) Carts() CartRepository         { return &cartRepository{db: s.db} }
func (s *GormStore) Orders() OrderRepository       { return &orderRepository{db: s.db} }
func (s *GormStore) AuditLogs() AuditLogRepository { return &auditLogRepository{db: s.db} }

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translateError maps gorm errors onto the package sentinels. It relies on the
// connection being opened with TranslateError enabled.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func paginate(db *gorm.DB, page Page) *gorm.DB {
	if !page.Enabled() {
		return db
	}
	return db.Offset(page.Offset()).Limit(page.Limit)
}
