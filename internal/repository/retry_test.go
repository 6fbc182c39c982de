package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(t.Context(), func() error {
		calls++
		if calls < 3 {
			return ErrVersionConflict
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryIsBounded(t *testing.T) {
	calls := 0
	err := Retry(t.Context(), func() error {
		calls++
		return fmt.Errorf("save cart: %w", ErrVersionConflict)
	})

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, maxRetries+1, calls)
}

func TestRetryGivesUpOnPermanentErrors(t *testing.T) {
	permanent := errors.New("constraint violated")
	calls := 0
	err := Retry(t.Context(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrVersionConflict))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(nil))
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translateError(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)
	assert.NoError(t, translateError(nil))
}
