package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
)

func TestUnavailableTagsDriverErrors(t *testing.T) {
	driverErr := errors.New("connection refused")

	err := unavailable(driverErr, "fetch transactions")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "fetch transactions")
}

func TestUnavailableKeepsCancellation(t *testing.T) {
	err := unavailable(context.DeadlineExceeded, "fetch expenses")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, store.ErrUnavailable)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
