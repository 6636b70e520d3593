package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
)

// Schema creates the tables the store reads. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id             TEXT PRIMARY KEY,
	occurred_at    TIMESTAMPTZ NOT NULL,
	amount         NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	payment_method TEXT NOT NULL DEFAULT '',
	employee_name  TEXT NOT NULL DEFAULT '',
	customer_name  TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS transactions_occurred_at_idx ON transactions (occurred_at);

CREATE TABLE IF NOT EXISTS transaction_items (
	transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	position       INT NOT NULL,
	service_id     TEXT NOT NULL DEFAULT '',
	service_name   TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	quantity       INT NOT NULL,
	unit_price     NUMERIC(14,2) NOT NULL,
	PRIMARY KEY (transaction_id, position)
);

CREATE TABLE IF NOT EXISTS expenses (
	id          TEXT PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	amount      NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	category    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS expenses_occurred_at_idx ON expenses (occurred_at);

CREATE TABLE IF NOT EXISTS app_users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, unavailable(err, "ping postgres")
	}

	return &Store{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "migrate schema")
	}
	return nil
}

func (s *Store) FetchTransactions(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	query, args, err := s.builder.
		Select("id", "occurred_at", "amount", "payment_method", "employee_name", "customer_name", "description").
		From("transactions").
		Where(squirrel.GtOrEq{"occurred_at": from}).
		Where(squirrel.Lt{"occurred_at": to}).
		OrderBy("occurred_at", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build transactions query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, "fetch transactions")
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, 128)
	index := make(map[string]int, 128)
	for rows.Next() {
		var tx domain.Transaction
		var method string
		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Amount, &method, &tx.EmployeeName, &tx.CustomerName, &tx.Description); err != nil {
			return nil, unavailable(err, "scan transaction")
		}
		tx.Date = tx.Date.UTC()
		tx.PaymentMethod = domain.PaymentMethod(method)
		tx.Items = make([]domain.LineItem, 0, 2)
		index[tx.ID] = len(txs)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "read transactions")
	}
	if len(txs) == 0 {
		return txs, nil
	}

	if err := s.attachItems(ctx, from, to, txs, index); err != nil {
		return nil, err
	}
	return txs, nil
}

// attachItems loads the line items of every transaction in [from, to) with
// one join instead of a query per transaction.
func (s *Store) attachItems(ctx context.Context, from time.Time, to time.Time, txs []domain.Transaction, index map[string]int) error {
	query, args, err := s.builder.
		Select("ti.transaction_id", "ti.service_id", "ti.service_name", "ti.category", "ti.quantity", "ti.unit_price").
		From("transaction_items ti").
		Join("transactions t ON t.id = ti.transaction_id").
		Where(squirrel.GtOrEq{"t.occurred_at": from}).
		Where(squirrel.Lt{"t.occurred_at": to}).
		OrderBy("ti.transaction_id", "ti.position").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build items query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return unavailable(err, "fetch transaction items")
	}
	defer rows.Close()

	for rows.Next() {
		var txID, category string
		var item domain.LineItem
		if err := rows.Scan(&txID, &item.ServiceID, &item.ServiceName, &category, &item.Quantity, &item.UnitPrice); err != nil {
			return unavailable(err, "scan transaction item")
		}
		item.Category = domain.Category(category)
		if i, ok := index[txID]; ok {
			txs[i].Items = append(txs[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return unavailable(err, "read transaction items")
	}
	return nil
}

func (s *Store) FetchExpenses(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	query, args, err := s.builder.
		Select("id", "occurred_at", "amount", "category", "description").
		From("expenses").
		Where(squirrel.GtOrEq{"occurred_at": from}).
		Where(squirrel.Lt{"occurred_at": to}).
		OrderBy("occurred_at", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build expenses query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, "fetch expenses")
	}
	defer rows.Close()

	exps := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var exp domain.Expense
		if err := rows.Scan(&exp.ID, &exp.Date, &exp.Amount, &exp.Category, &exp.Description); err != nil {
			return nil, unavailable(err, "scan expense")
		}
		exp.Date = exp.Date.UTC()
		exps = append(exps, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "read expenses")
	}
	return exps, nil
}

// InsertTransaction writes a sale and its items in one transaction.
func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" || tx.Date.IsZero() || !tx.Amount.IsPositive() {
		return store.ErrInvalidInput
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err, "begin insert transaction")
	}
	defer func() { _ = dbTx.Rollback() }()

	query, args, err := s.builder.
		Insert("transactions").
		Columns("id", "occurred_at", "amount", "payment_method", "employee_name", "customer_name", "description").
		Values(tx.ID, tx.Date.UTC(), tx.Amount, string(tx.PaymentMethod), tx.EmployeeName, tx.CustomerName, tx.Description).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build transaction insert")
	}
	if _, err := dbTx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return unavailable(err, "insert transaction")
	}

	if len(tx.Items) > 0 {
		insert := s.builder.
			Insert("transaction_items").
			Columns("transaction_id", "position", "service_id", "service_name", "category", "quantity", "unit_price")
		for i, item := range tx.Items {
			insert = insert.Values(tx.ID, i, item.ServiceID, item.ServiceName, string(item.Category), item.Quantity, item.UnitPrice)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return errors.Wrap(err, "build items insert")
		}
		if _, err := dbTx.ExecContext(ctx, query, args...); err != nil {
			return unavailable(err, "insert transaction items")
		}
	}

	if err := dbTx.Commit(); err != nil {
		return unavailable(err, "commit transaction")
	}
	return nil
}

func (s *Store) InsertExpense(ctx context.Context, exp domain.Expense) error {
	if exp.ID == "" || exp.Date.IsZero() || !exp.Amount.IsPositive() {
		return store.ErrInvalidInput
	}
	query, args, err := s.builder.
		Insert("expenses").
		Columns("id", "occurred_at", "amount", "category", "description").
		Values(exp.ID, exp.Date.UTC(), exp.Amount, exp.Category, exp.Description).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build expense insert")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return unavailable(err, "insert expense")
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query, args, err := s.builder.
		Insert("app_users").
		Columns("username", "password", "role", "active", "created_at", "updated_at").
		Values(user.Username, user.Password, user.Role, user.Active, user.CreatedAt, squirrel.Expr("now()")).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build user insert")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return unavailable(err, "insert user")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	query, args, err := s.builder.
		Select("username", "password", "role", "active", "created_at").
		From("app_users").
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build users query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, "list users")
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, unavailable(err, "scan user")
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "read users")
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	query, args, err := s.builder.
		Update("app_users").
		Set("password", password).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build password update")
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable(err, "update password")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable(err, "update password")
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// unavailable tags a driver failure with store.ErrUnavailable. Context
// cancellation passes through untouched.
func unavailable(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithMessage(err, op)
	}
	return errors.WithMessage(fmt.Errorf("%w: %w", store.ErrUnavailable, err), op)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
