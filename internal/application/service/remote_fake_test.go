package service

import (
	"context"
	"sort"
	"sync"

	"ledgersync/internal/application/port"
	"ledgersync/internal/domain"
)

// fakeRemote is an in-memory remote store with error injection. failAll
// rejects every call; failOn rejects single operations by name. calls
// records operation order for FIFO assertions.
type fakeRemote struct {
	mu         sync.Mutex
	portfolios map[string]domain.Portfolio
	holdings   map[string]domain.Holding
	expenses   map[string]domain.Expense
	profile    *domain.Profile
	failAll    error
	failOn     map[string]error
	blockList  chan struct{}
	calls      []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		portfolios: map[string]domain.Portfolio{},
		holdings:   map[string]domain.Holding{},
		expenses:   map[string]domain.Expense{},
		failOn:     map[string]error{},
	}
}

func (f *fakeRemote) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if f.failAll != nil {
		return f.failAll
	}
	return f.failOn[op]
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) ListPortfolios(ctx context.Context, ownerID string) ([]domain.Portfolio, error) {
	if f.blockList != nil {
		<-f.blockList
	}
	if err := f.check("ListPortfolios"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Portfolio, 0, len(f.portfolios))
	for _, p := range f.portfolios {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) CreatePortfolio(ctx context.Context, p domain.Portfolio) (domain.Portfolio, error) {
	if err := f.check("CreatePortfolio"); err != nil {
		return domain.Portfolio{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portfolios[p.ID] = p
	return p, nil
}

func (f *fakeRemote) UpdatePortfolio(ctx context.Context, id string, p domain.Portfolio) (domain.Portfolio, error) {
	if err := f.check("UpdatePortfolio"); err != nil {
		return domain.Portfolio{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portfolios[id] = p
	return p, nil
}

func (f *fakeRemote) DeletePortfolio(ctx context.Context, id string) error {
	if err := f.check("DeletePortfolio"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.portfolios, id)
	return nil
}

func (f *fakeRemote) ListHoldings(ctx context.Context, ownerID string) ([]domain.Holding, error) {
	if err := f.check("ListHoldings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Holding, 0, len(f.holdings))
	for _, h := range f.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) CreateHolding(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	if err := f.check("CreateHolding"); err != nil {
		return domain.Holding{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdings[h.ID] = h
	return h, nil
}

func (f *fakeRemote) UpdateHolding(ctx context.Context, id string, h domain.Holding) (domain.Holding, error) {
	if err := f.check("UpdateHolding"); err != nil {
		return domain.Holding{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdings[id] = h
	return h, nil
}

func (f *fakeRemote) DeleteHolding(ctx context.Context, id string) error {
	if err := f.check("DeleteHolding"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holdings, id)
	return nil
}

func (f *fakeRemote) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	if err := f.check("ListExpenses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Expense, 0, len(f.expenses))
	for _, e := range f.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) CreateExpense(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	if err := f.check("CreateExpense"); err != nil {
		return domain.Expense{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses[e.ID] = e
	return e, nil
}

func (f *fakeRemote) UpdateExpense(ctx context.Context, id string, e domain.Expense) (domain.Expense, error) {
	if err := f.check("UpdateExpense"); err != nil {
		return domain.Expense{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses[id] = e
	return e, nil
}

func (f *fakeRemote) DeleteExpense(ctx context.Context, id string) error {
	if err := f.check("DeleteExpense"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.expenses, id)
	return nil
}

func (f *fakeRemote) FetchProfile(ctx context.Context, ownerID string) (domain.Profile, error) {
	if err := f.check("FetchProfile"); err != nil {
		return domain.Profile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return domain.Profile{}, &port.RemoteError{Kind: port.KindValidation, Op: "fetch profile", Err: errNotFound}
	}
	return *f.profile, nil
}

func (f *fakeRemote) SaveProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if err := f.check("SaveProfile"); err != nil {
		return domain.Profile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = &p
	return p, nil
}

var _ port.RemoteStore = (*fakeRemote)(nil)
