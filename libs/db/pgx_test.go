package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	unique := &pgconn.PgError{Code: CodeUniqueViolation}
	wrapped := fmt.Errorf("insert appointment: %w", unique)

	assert.True(t, HasCode(unique, CodeUniqueViolation))
	assert.True(t, HasCode(wrapped, CodeExclusionViolation, CodeUniqueViolation))
	assert.False(t, HasCode(wrapped, CodeExclusionViolation))
	assert.False(t, HasCode(errors.New("boom"), CodeUniqueViolation))
	assert.False(t, HasCode(nil, CodeUniqueViolation))
}

func TestReadyCheckWithoutPool(t *testing.T) {
	assert.Error(t, ReadyCheck(nil)(context.Background()))
	assert.Error(t, ReadyCheck(&Pool{})(context.Background()))
}
