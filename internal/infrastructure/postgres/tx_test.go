package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert folder: %w", &pgconn.PgError{Code: "23505"})
	badUUID := &pgconn.PgError{Code: "22P02"}

	assert.True(t, isUniqueViolation(dup))
	assert.False(t, isUniqueViolation(badUUID))
	assert.False(t, isUniqueViolation(errors.New("23505")))

	assert.True(t, isInvalidInput(badUUID))
	assert.False(t, isInvalidInput(dup))

	assert.True(t, isNotFound(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, isNotFound(dup))
}
