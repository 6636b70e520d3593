package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	transactions    []domain.Transaction
	expenses        []domain.Expense
	usersByUsername map[string]domain.UserAccount
}

// Options configures the dev/demo accounts. Blank passwords fall back to
// hardcoded dev defaults with a warning.
type Options struct {
	AdminPassword string
	StaffPassword string
	Logger        logrus.FieldLogger
}

// New returns a store holding only the seed accounts.
func New(opts Options) *Store {
	return &Store{
		transactions:    make([]domain.Transaction, 0, 64),
		expenses:        make([]domain.Expense, 0, 16),
		usersByUsername: seedUsers(opts),
	}
}

// NewSeeded returns a store with the seed accounts and a few weeks of demo
// salon records ending at now.
func NewSeeded(opts Options, now time.Time) *Store {
	s := New(opts)
	txs, exps := demoRecords(now.UTC())
	_ = s.AddTransactions(context.Background(), txs...)
	_ = s.AddExpenses(context.Background(), exps...)
	return s
}

func seedUsers(opts Options) map[string]domain.UserAccount {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	adminPwd := opts.AdminPassword
	if adminPwd == "" {
		adminPwd = "admin123"
	}
	staffPwd := opts.StaffPassword
	if staffPwd == "" {
		staffPwd = "staff123"
	}
	if opts.AdminPassword == "" || opts.StaffPassword == "" {
		log.Warn("memory store: using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.WithError(err).Fatalf("memory store: failed to hash seed password for %s", u.username)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

// AddTransactions validates and appends sales. Missing ids are generated.
func (s *Store) AddTransactions(_ context.Context, txs ...domain.Transaction) error {
	prepared := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.IsZero() || !tx.Amount.IsPositive() {
			return fmt.Errorf("%w: transaction %q needs a date and a positive amount", store.ErrInvalidInput, tx.ID)
		}
		if tx.ID == "" {
			tx.ID = xid.New("tx")
		}
		tx.Date = tx.Date.UTC()
		prepared = append(prepared, cloneTransaction(tx))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, prepared...)
	return nil
}

func (s *Store) AddExpenses(_ context.Context, exps ...domain.Expense) error {
	prepared := make([]domain.Expense, 0, len(exps))
	for _, exp := range exps {
		if exp.Date.IsZero() || !exp.Amount.IsPositive() {
			return fmt.Errorf("%w: expense %q needs a date and a positive amount", store.ErrInvalidInput, exp.ID)
		}
		if exp.ID == "" {
			exp.ID = xid.New("exp")
		}
		exp.Date = exp.Date.UTC()
		prepared = append(prepared, exp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, prepared...)
	return nil
}

func (s *Store) FetchTransactions(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if inRange(tx.Date, from, to) {
			result = append(result, cloneTransaction(tx))
		}
	}
	slices.SortStableFunc(result, func(a, b domain.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) FetchExpenses(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, len(s.expenses))
	for _, exp := range s.expenses {
		if inRange(exp.Date, from, to) {
			result = append(result, exp)
		}
	}
	slices.SortStableFunc(result, func(a, b domain.Expense) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func inRange(t time.Time, from time.Time, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func cloneTransaction(src domain.Transaction) domain.Transaction {
	dup := src
	dup.Items = make([]domain.LineItem, len(src.Items))
	copy(dup.Items, src.Items)
	return dup
}

type demoService struct {
	id       string
	name     string
	category domain.Category
	price    int64
}

var demoMenu = []demoService{
	{"svc-gel", "Gel polish", domain.CategoryNails, 450},
	{"svc-ext", "Nail extension", domain.CategoryNails, 1200},
	{"svc-brow", "Brow shaping", domain.CategoryBrows, 350},
	{"svc-lash", "Lash lift", domain.CategoryEyelash, 900},
	{"svc-pmu", "Lip blush", domain.CategoryPermanentMakeup, 4500},
	{"svc-course", "Gel basics course", domain.CategoryCourseStudy, 6000},
}

var demoStaff = []string{"Ploy", "Nok", "Fah", ""}

var demoMethods = []domain.PaymentMethod{
	domain.PaymentCash, domain.PaymentCreditCard, domain.PaymentPromptPay, domain.PaymentTransfer,
}

// demoRecords generates a fixed pseudo-random history for the 45 days up to
// now, so a fresh dev server shows non-empty reports.
func demoRecords(now time.Time) ([]domain.Transaction, []domain.Expense) {
	rng := rand.New(rand.NewPCG(2569, 7))
	start := now.Add(-45 * 24 * time.Hour).Truncate(time.Hour)

	txs := make([]domain.Transaction, 0, 180)
	exps := make([]domain.Expense, 0, 12)
	for day := 0; day <= 45; day++ {
		opening := start.Add(time.Duration(day)*24*time.Hour + 3*time.Hour)
		visits := 1 + rng.IntN(5)
		for visit := 0; visit < visits; visit++ {
			at := opening.Add(time.Duration(rng.IntN(10*60)) * time.Minute)
			if at.After(now) {
				continue
			}
			svc := demoMenu[rng.IntN(len(demoMenu))]
			qty := 1 + rng.IntN(2)
			price := decimal.NewFromInt(svc.price)
			txs = append(txs, domain.Transaction{
				ID:            fmt.Sprintf("demo-tx-%02d-%d", day, visit),
				Date:          at,
				Amount:        price.Mul(decimal.NewFromInt(int64(qty))),
				PaymentMethod: demoMethods[rng.IntN(len(demoMethods))],
				EmployeeName:  demoStaff[rng.IntN(len(demoStaff))],
				CustomerName:  fmt.Sprintf("walk-in %d", visit+1),
				Items: []domain.LineItem{{
					ServiceID:   svc.id,
					ServiceName: svc.name,
					Category:    svc.category,
					Quantity:    qty,
					UnitPrice:   price,
				}},
			})
		}
		if day%7 == 0 && opening.Before(now) {
			exps = append(exps, domain.Expense{
				ID:          fmt.Sprintf("demo-exp-%02d", day),
				Date:        opening,
				Amount:      decimal.NewFromInt(800 + int64(rng.IntN(1200))),
				Category:    "วัสดุสิ้นเปลือง",
				Description: "gel and lash supplies",
			})
		}
	}
	return txs, exps
}
