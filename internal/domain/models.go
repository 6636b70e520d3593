package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentPromptPay  PaymentMethod = "PROMPTPAY"
	PaymentTransfer   PaymentMethod = "TRANSFER"
)

// KnownPaymentMethods lists the closed set of channels in display order.
var KnownPaymentMethods = []PaymentMethod{
	PaymentCash,
	PaymentCreditCard,
	PaymentPromptPay,
	PaymentTransfer,
}

// Known reports whether m belongs to the closed set. Anything else is an
// "other" channel that is still tracked under its raw key.
func (m PaymentMethod) Known() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentPromptPay, PaymentTransfer:
		return true
	default:
		return false
	}
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Cash"
	case PaymentCreditCard:
		return "Card"
	case PaymentPromptPay:
		return "QR"
	case PaymentTransfer:
		return "Transfer"
	default:
		return string(m)
	}
}

type Category string

const (
	CategoryNails           Category = "NAILS"
	CategoryBrows           Category = "BROWS"
	CategoryEyelash         Category = "EYELASH"
	CategoryPermanentMakeup Category = "PERMANENT_MAKEUP"
	CategoryCourseStudy     Category = "COURSE_STUDY"
	CategoryOthers          Category = "OTHERS"
)

// Categories is the declaration order used for every category listing.
var Categories = []Category{
	CategoryNails,
	CategoryBrows,
	CategoryEyelash,
	CategoryPermanentMakeup,
	CategoryCourseStudy,
	CategoryOthers,
}

// Normalize folds unknown or empty categories into OTHERS.
func (c Category) Normalize() Category {
	switch c {
	case CategoryNails, CategoryBrows, CategoryEyelash, CategoryPermanentMakeup, CategoryCourseStudy, CategoryOthers:
		return c
	default:
		return CategoryOthers
	}
}

func (c Category) Label() string {
	switch c.Normalize() {
	case CategoryNails:
		return "เล็บ"
	case CategoryBrows:
		return "คิ้ว"
	case CategoryEyelash:
		return "ขนตา"
	case CategoryPermanentMakeup:
		return "สักปาก/คิ้ว"
	case CategoryCourseStudy:
		return "คอร์สเรียน"
	default:
		return "อื่นๆ"
	}
}

// DefaultExpenseCategory is applied to expenses recorded without a category.
const DefaultExpenseCategory = "อื่นๆ"

type LineItem struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Category    Category        `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Revenue is quantity × unit price. Non-positive quantities contribute nothing.
func (li LineItem) Revenue() decimal.Decimal {
	if li.Quantity < 1 {
		return decimal.Zero
	}
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Transaction struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	EmployeeName  string          `json:"employee_name"`
	CustomerName  string          `json:"customer_name"`
	Description   string          `json:"description,omitempty"`
	Items         []LineItem      `json:"items"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

// CalendarSystem tells how PeriodSpec.Year is to be read.
type CalendarSystem string

const (
	CalendarAuto      CalendarSystem = ""
	CalendarGregorian CalendarSystem = "gregorian"
	CalendarBuddhist  CalendarSystem = "buddhist"
)

// BuddhistEraOffset is the number of years the Buddhist Era runs ahead of
// the Gregorian calendar.
const BuddhistEraOffset = 543

type PeriodSpec struct {
	Kind     PeriodKind     `json:"kind"`
	Year     int            `json:"year"`
	Month    int            `json:"month,omitempty"`
	Day      int            `json:"day,omitempty"`
	Calendar CalendarSystem `json:"calendar,omitempty"`
}

// Period is a resolved half-open [Start, End) interval in UTC. Year is
// always Gregorian.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Year  int        `json:"year"`
	Month int        `json:"month,omitempty"`
	Day   int        `json:"day,omitempty"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

type CategoryTotal struct {
	Category Category        `json:"key"`
	Label    string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
}

type ExpenseCategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int64           `json:"count"`
}

type ServiceRank struct {
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Revenue   decimal.Decimal `json:"revenue"`
	Count     int64           `json:"count"`
}

type PaymentSubtotal struct {
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Label         string          `json:"label"`
	Amount        decimal.Decimal `json:"amount"`
	Count         int64           `json:"count"`
}

type EmployeeSummary struct {
	EmployeeName     string            `json:"employee_name"`
	TransactionCount int64             `json:"transaction_count"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	PaymentMethods   []PaymentSubtotal `json:"payment_methods"`
	Transactions     []Transaction     `json:"transactions"`
}

type AggregateResult struct {
	Period            Period                 `json:"period"`
	Year              int                    `json:"year"`
	TotalIncome       decimal.Decimal        `json:"total_income"`
	TotalExpense      decimal.Decimal        `json:"total_expense"`
	NetProfit         decimal.Decimal        `json:"net_profit"`
	TransactionCount  int64                  `json:"transaction_count"`
	CategoryBreakdown []CategoryTotal        `json:"category_breakdown"`
	ExpenseBreakdown  []ExpenseCategoryTotal `json:"expense_breakdown"`
	TopServices       []ServiceRank          `json:"top_services"`
	EmployeeBreakdown []EmployeeSummary      `json:"employee_breakdown"`
}

type MonthlyEntry struct {
	Month            int             `json:"month_index"`
	Label            string          `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	TransactionCount int64           `json:"transaction_count"`
	ExpenseCount     int64           `json:"expense_count"`
	Period           Period          `json:"period"`
}

type YearReport struct {
	Year             int             `json:"year"`
	GregorianYear    int             `json:"gregorian_year"`
	Monthly          []MonthlyEntry  `json:"monthly_data"`
	Summary          AggregateResult `json:"summary"`
	CurrentMonth     int             `json:"current_month,omitempty"`
	CurrentMonthName string          `json:"current_month_name,omitempty"`
}

type TargetProgress struct {
	Target  decimal.Decimal `json:"target"`
	Actual  decimal.Decimal `json:"actual"`
	Percent decimal.Decimal `json:"percent"`
	Reached bool            `json:"reached"`
}

type Dashboard struct {
	StoreName         string          `json:"store_name"`
	Date              string          `json:"date"`
	Year              int             `json:"year"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	TodayTransactions int64           `json:"today_transactions"`
	MonthRevenue      decimal.Decimal `json:"month_revenue"`
	MonthExpenses     decimal.Decimal `json:"month_expenses"`
	MonthNetProfit    decimal.Decimal `json:"month_net_profit"`
	DailyTarget       TargetProgress  `json:"daily_target"`
	MonthlyTarget     TargetProgress  `json:"monthly_target"`
}

type StaffReport struct {
	Range     string            `json:"range"`
	Period    Period            `json:"period"`
	Total     decimal.Decimal   `json:"total"`
	Employees []EmployeeSummary `json:"employees"`
}

type BusinessSettings struct {
	StoreName     string          `json:"store_name"`
	DailyTarget   decimal.Decimal `json:"daily_target"`
	MonthlyTarget decimal.Decimal `json:"monthly_target"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
