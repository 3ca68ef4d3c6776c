package port

import (
	"context"
	"errors"
	"fmt"

	"ledgersync/internal/domain"
)

// ErrorKind classifies remote store failures. The coordinator switches on
// the kind: transport errors are retried, auth errors are surfaced for
// re-authentication, validation errors are dropped permanently.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
)

// RemoteError wraps a remote store failure with its kind.
type RemoteError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// KindOf extracts the error kind, defaulting to transport for untyped
// errors (an unclassified failure is safest treated as retryable).
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransport
}

// RemoteStore is the cloud-side CRUD API for a user's finance data.
// Implementations classify every failure as a *RemoteError.
type RemoteStore interface {
	// Portfolio operations
	ListPortfolios(ctx context.Context, ownerID string) ([]domain.Portfolio, error)
	CreatePortfolio(ctx context.Context, p domain.Portfolio) (domain.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id string, p domain.Portfolio) (domain.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error

	// Holding operations
	ListHoldings(ctx context.Context, ownerID string) ([]domain.Holding, error)
	CreateHolding(ctx context.Context, h domain.Holding) (domain.Holding, error)
	UpdateHolding(ctx context.Context, id string, h domain.Holding) (domain.Holding, error)
	DeleteHolding(ctx context.Context, id string) error

	// Expense operations
	ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, e domain.Expense) (domain.Expense, error)
	UpdateExpense(ctx context.Context, id string, e domain.Expense) (domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	// Profile operations
	FetchProfile(ctx context.Context, ownerID string) (domain.Profile, error)
	SaveProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)
}
