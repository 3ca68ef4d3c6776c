package remote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledgersync/internal/domain"
)

// Wire types for the remote API. Monetary fields travel as strings so
// the server never sees binary floating point.

type portfolioDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	TotalValue string    `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type holdingDTO struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	UserID      string    `json:"user_id"`
	Ticker      string    `json:"ticker"`
	Shares      string    `json:"shares"`
	CostBasis   string    `json:"cost_basis"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type expenseDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Note      string    `json:"note,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Currency      string    `json:"currency"`
	MonthlyTarget string    `json:"monthly_target"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func (d portfolioDTO) toDomain() (domain.Portfolio, error) {
	total, err := parseAmount("total_value", d.TotalValue)
	if err != nil {
		return domain.Portfolio{}, err
	}
	return domain.Portfolio{
		ID:         d.ID,
		UserID:     d.UserID,
		Name:       d.Name,
		TotalValue: total,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func fromPortfolio(p domain.Portfolio) portfolioDTO {
	return portfolioDTO{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       p.Name,
		TotalValue: p.TotalValue.String(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (d holdingDTO) toDomain() (domain.Holding, error) {
	shares, err := parseAmount("shares", d.Shares)
	if err != nil {
		return domain.Holding{}, err
	}
	basis, err := parseAmount("cost_basis", d.CostBasis)
	if err != nil {
		return domain.Holding{}, err
	}
	return domain.Holding{
		ID:          d.ID,
		PortfolioID: d.PortfolioID,
		UserID:      d.UserID,
		Ticker:      d.Ticker,
		Shares:      shares,
		CostBasis:   basis,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func fromHolding(h domain.Holding) holdingDTO {
	return holdingDTO{
		ID:          h.ID,
		PortfolioID: h.PortfolioID,
		UserID:      h.UserID,
		Ticker:      h.Ticker,
		Shares:      h.Shares.String(),
		CostBasis:   h.CostBasis.String(),
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func (d expenseDTO) toDomain() (domain.Expense, error) {
	amount, err := parseAmount("amount", d.Amount)
	if err != nil {
		return domain.Expense{}, err
	}
	return domain.Expense{
		ID:        d.ID,
		UserID:    d.UserID,
		Category:  d.Category,
		Amount:    amount,
		Note:      d.Note,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func fromExpense(e domain.Expense) expenseDTO {
	return expenseDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Category:  e.Category,
		Amount:    e.Amount.String(),
		Note:      e.Note,
		Date:      e.Date,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (d profileDTO) toDomain() (domain.Profile, error) {
	target, err := parseAmount("monthly_target", d.MonthlyTarget)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:            d.ID,
		UserID:        d.UserID,
		DisplayName:   d.DisplayName,
		Currency:      d.Currency,
		MonthlyTarget: target,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func fromProfile(p domain.Profile) profileDTO {
	return profileDTO{
		ID:            p.ID,
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		Currency:      p.Currency,
		MonthlyTarget: p.MonthlyTarget.String(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
