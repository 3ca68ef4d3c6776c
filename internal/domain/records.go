package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies a domain collection on the wire, in the cache
// and in the mutation queue.
type EntityType string

const (
	EntityPortfolio EntityType = "portfolio"
	EntityHolding   EntityType = "holding"
	EntityExpense   EntityType = "expense"
	EntityProfile   EntityType = "profile"
)

// Portfolio groups a user's holdings.
type Portfolio struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	TotalValue decimal.Decimal `json:"total_value"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Holding is a single position inside a portfolio. Its lifetime is bound
// to the owning portfolio: deleting the portfolio deletes its holdings.
type Holding struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	UserID      string          `json:"user_id"`
	Ticker      string          `json:"ticker"`
	Shares      decimal.Decimal `json:"shares"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Expense is a single outgoing transaction.
type Expense struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Profile holds per-user dashboard settings. There is at most one per user.
type Profile struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	DisplayName   string          `json:"display_name"`
	Currency      string          `json:"currency"`
	MonthlyTarget decimal.Decimal `json:"monthly_target"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewerThan reports whether a is strictly newer than b, the ordering
// used for last-writer-wins reconciliation.
func NewerThan(a, b time.Time) bool {
	return a.After(b)
}
