package store

import (
	"context"
	"errors"
	"time"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable marks a backend failure. Callers may retry.
	ErrUnavailable = errors.New("record store unavailable")
)

// RecordReader fetches the raw money records for a half-open [from, to)
// interval. Implementations never filter by anything but the date.
type RecordReader interface {
	FetchTransactions(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)
	FetchExpenses(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	RecordReader
	UserRepository
}
