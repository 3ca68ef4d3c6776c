package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ledgersync/internal/application/port"
	"ledgersync/internal/domain"
)

// Cache keys per collection. The Cache prefixes them with its namespace.
const (
	keyPortfolios = "portfolios"
	keyHoldings   = "holdings"
	keyExpenses   = "expenses"
	keyProfile    = "profile"
	keyLastSync   = "meta:last_sync"
)

// Coordinator routes every domain read and write across the local cache
// and the remote store according to the active storage mode, queues
// writes that cannot reach the remote, and reconciles via Sync.
//
// Reads never return errors: a remote failure degrades to the cache, a
// cache miss degrades to an empty value. Writes report success as a
// boolean; a write that cannot reach the remote is applied to the cache
// and queued in the same step, never one without the other.
type Coordinator struct {
	modes  *ModeController
	cache  *Cache
	queue  *MutationQueue
	remote port.RemoteStore
	reach  port.Reachability

	syncing atomic.Bool

	mu       sync.Mutex
	lastSync *time.Time
}

// NewCoordinator wires the coordinator. The last sync time is restored
// from the cache so status survives restarts.
func NewCoordinator(modes *ModeController, cache *Cache, queue *MutationQueue, remote port.RemoteStore, reach port.Reachability) *Coordinator {
	c := &Coordinator{modes: modes, cache: cache, queue: queue, remote: remote, reach: reach}
	var last time.Time
	if cache.Get(keyLastSync, &last) {
		c.lastSync = &last
	}
	return c
}

// Status returns the current mode, connectivity and sync state snapshot.
func (c *Coordinator) Status() StorageStatus {
	c.mu.Lock()
	last := c.lastSync
	c.mu.Unlock()
	return StorageStatus{
		Mode:           c.modes.Mode(),
		Online:         c.reach.Online(),
		Authenticated:  c.modes.Authenticated(),
		LastSync:       last,
		SyncInProgress: c.syncing.Load(),
	}
}

// EnableCloudMode switches to remote-primary operation for userID.
func (c *Coordinator) EnableCloudMode(userID string) {
	c.modes.EnableCloudMode(userID)
	log.Info().Str("user_id", userID).Msg("cloud mode enabled")
}

// EnableOfflineMode switches to local-only operation.
func (c *Coordinator) EnableOfflineMode() {
	c.modes.EnableOfflineMode()
	log.Info().Msg("offline mode enabled")
}

// remoteWritable reports whether a write should go straight to the
// remote store instead of cache+queue.
func (c *Coordinator) remoteWritable() bool {
	return c.modes.Mode().Primary == StoreRemote && c.reach.Online()
}

// --- read path ---

// GetPortfolios returns the user's portfolios from the primary store,
// degrading to the cache on remote failure.
func (c *Coordinator) GetPortfolios(ctx context.Context) []domain.Portfolio {
	if c.modes.Mode().Primary == StoreRemote {
		ps, err := c.remote.ListPortfolios(ctx, c.modes.UserID())
		if err == nil {
			if ps == nil {
				ps = []domain.Portfolio{}
			}
			if c.modes.Mode().AutoSync {
				c.cache.Set(keyPortfolios, ps)
			}
			return ps
		}
		log.Warn().Err(err).Msg("remote portfolio read failed, serving cache")
	}
	var ps []domain.Portfolio
	c.cache.Get(keyPortfolios, &ps)
	return ps
}

// GetHoldingsByPortfolioID returns the holdings of one portfolio.
func (c *Coordinator) GetHoldingsByPortfolioID(ctx context.Context, portfolioID string) []domain.Holding {
	all := c.getHoldings(ctx)
	out := make([]domain.Holding, 0, len(all))
	for _, h := range all {
		if h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	return out
}

func (c *Coordinator) getHoldings(ctx context.Context) []domain.Holding {
	if c.modes.Mode().Primary == StoreRemote {
		hs, err := c.remote.ListHoldings(ctx, c.modes.UserID())
		if err == nil {
			if hs == nil {
				hs = []domain.Holding{}
			}
			if c.modes.Mode().AutoSync {
				c.cache.Set(keyHoldings, hs)
			}
			return hs
		}
		log.Warn().Err(err).Msg("remote holding read failed, serving cache")
	}
	var hs []domain.Holding
	c.cache.Get(keyHoldings, &hs)
	return hs
}

// GetExpenses returns the user's expenses from the primary store.
func (c *Coordinator) GetExpenses(ctx context.Context) []domain.Expense {
	if c.modes.Mode().Primary == StoreRemote {
		es, err := c.remote.ListExpenses(ctx, c.modes.UserID())
		if err == nil {
			if es == nil {
				es = []domain.Expense{}
			}
			if c.modes.Mode().AutoSync {
				c.cache.Set(keyExpenses, es)
			}
			return es
		}
		log.Warn().Err(err).Msg("remote expense read failed, serving cache")
	}
	var es []domain.Expense
	c.cache.Get(keyExpenses, &es)
	return es
}

// GetProfile returns the user's profile and whether one exists.
func (c *Coordinator) GetProfile(ctx context.Context) (domain.Profile, bool) {
	if c.modes.Mode().Primary == StoreRemote {
		p, err := c.remote.FetchProfile(ctx, c.modes.UserID())
		if err == nil {
			if c.modes.Mode().AutoSync {
				c.cache.Set(keyProfile, p)
			}
			return p, true
		}
		log.Warn().Err(err).Msg("remote profile read failed, serving cache")
	}
	var p domain.Profile
	ok := c.cache.Get(keyProfile, &p)
	return p, ok
}

// --- write path ---

// stamp fills identity and timestamps on a new record.
func (c *Coordinator) stampNew(id *string, userID *string, created, updated *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = uuid.NewString()
	}
	if *userID == "" {
		*userID = c.modes.UserID()
	}
	*created = now
	*updated = now
}

// AddPortfolio creates a portfolio. The returned record carries
// server-assigned fields when the write reached the remote store.
func (c *Coordinator) AddPortfolio(ctx context.Context, p domain.Portfolio) (domain.Portfolio, bool) {
	c.stampNew(&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if c.remoteWritable() {
		created, err := c.remote.CreatePortfolio(ctx, p)
		if err == nil {
			return created, c.mirrorPortfolio(created)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Msg("portfolio create rejected")
			return domain.Portfolio{}, false
		}
		log.Warn().Err(err).Msg("remote portfolio create failed, queueing")
	}
	ok := c.mirrorPortfolio(p) && c.queue.Enqueue(domain.EntityPortfolio, OpCreate, p)
	return p, ok
}

// UpdatePortfolio applies a full-record update.
func (c *Coordinator) UpdatePortfolio(ctx context.Context, p domain.Portfolio) (domain.Portfolio, bool) {
	p.UpdatedAt = time.Now().UTC()
	if c.remoteWritable() {
		updated, err := c.remote.UpdatePortfolio(ctx, p.ID, p)
		if err == nil {
			return updated, c.mirrorPortfolio(updated)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Str("id", p.ID).Msg("portfolio update rejected")
			return domain.Portfolio{}, false
		}
		log.Warn().Err(err).Str("id", p.ID).Msg("remote portfolio update failed, queueing")
	}
	ok := c.mirrorPortfolio(p) && c.queue.Enqueue(domain.EntityPortfolio, OpUpdate, p)
	return p, ok
}

// DeletePortfolio removes a portfolio and, by composition, its holdings.
// The cascade is this layer's responsibility: the remote store is never
// assumed to delete children itself.
func (c *Coordinator) DeletePortfolio(ctx context.Context, id string) bool {
	owned := c.cachedHoldingsOf(id)
	if !c.remoteWritable() {
		return c.queueCascadeDelete(id, owned)
	}

	// Children first, so the remote never holds orphaned holdings. A
	// holding whose direct delete fails in transit is queued individually.
	ok := true
	for _, h := range owned {
		err := c.remote.DeleteHolding(ctx, h.ID)
		switch {
		case err == nil:
		case port.KindOf(err) == port.KindValidation:
			log.Warn().Err(err).Str("id", h.ID).Msg("holding cascade delete rejected, dropping locally")
		default:
			log.Warn().Err(err).Str("id", h.ID).Msg("remote holding cascade delete failed, queueing")
			ok = c.queue.Enqueue(domain.EntityHolding, OpDelete, h) && ok
		}
	}

	err := c.remote.DeletePortfolio(ctx, id)
	switch {
	case err == nil:
		return c.dropPortfolioFromCache(id) && ok
	case port.KindOf(err) == port.KindValidation:
		log.Warn().Err(err).Str("id", id).Msg("portfolio delete rejected")
		return false
	default:
		log.Warn().Err(err).Str("id", id).Msg("remote portfolio delete failed, queueing")
		ok = c.queue.Enqueue(domain.EntityPortfolio, OpDelete, domain.Portfolio{ID: id}) && ok
		return c.dropPortfolioFromCache(id) && ok
	}
}

// queueCascadeDelete applies a portfolio delete to the cache and queues
// the holding deletes ahead of the portfolio delete so the drain replays
// them in a valid order.
func (c *Coordinator) queueCascadeDelete(id string, owned []domain.Holding) bool {
	ok := c.dropPortfolioFromCache(id)
	for _, h := range owned {
		ok = c.queue.Enqueue(domain.EntityHolding, OpDelete, h) && ok
	}
	return c.queue.Enqueue(domain.EntityPortfolio, OpDelete, domain.Portfolio{ID: id}) && ok
}

// AddHolding creates a holding inside a portfolio.
func (c *Coordinator) AddHolding(ctx context.Context, h domain.Holding) (domain.Holding, bool) {
	c.stampNew(&h.ID, &h.UserID, &h.CreatedAt, &h.UpdatedAt)
	if c.remoteWritable() {
		created, err := c.remote.CreateHolding(ctx, h)
		if err == nil {
			return created, c.mirrorHolding(created)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Msg("holding create rejected")
			return domain.Holding{}, false
		}
		log.Warn().Err(err).Msg("remote holding create failed, queueing")
	}
	ok := c.mirrorHolding(h) && c.queue.Enqueue(domain.EntityHolding, OpCreate, h)
	return h, ok
}

// UpdateHolding applies a full-record update.
func (c *Coordinator) UpdateHolding(ctx context.Context, h domain.Holding) (domain.Holding, bool) {
	h.UpdatedAt = time.Now().UTC()
	if c.remoteWritable() {
		updated, err := c.remote.UpdateHolding(ctx, h.ID, h)
		if err == nil {
			return updated, c.mirrorHolding(updated)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Str("id", h.ID).Msg("holding update rejected")
			return domain.Holding{}, false
		}
		log.Warn().Err(err).Str("id", h.ID).Msg("remote holding update failed, queueing")
	}
	ok := c.mirrorHolding(h) && c.queue.Enqueue(domain.EntityHolding, OpUpdate, h)
	return h, ok
}

// DeleteHolding removes a holding.
func (c *Coordinator) DeleteHolding(ctx context.Context, id string) bool {
	if c.remoteWritable() {
		if err := c.remote.DeleteHolding(ctx, id); err == nil {
			return c.dropHoldingFromCache(id)
		} else if port.KindOf(err) == port.KindValidation {
			log.Warn().Err(err).Str("id", id).Msg("holding delete rejected")
			return false
		} else {
			log.Warn().Err(err).Str("id", id).Msg("remote holding delete failed, queueing")
		}
	}
	return c.dropHoldingFromCache(id) && c.queue.Enqueue(domain.EntityHolding, OpDelete, domain.Holding{ID: id})
}

// AddExpense records an expense.
func (c *Coordinator) AddExpense(ctx context.Context, e domain.Expense) (domain.Expense, bool) {
	c.stampNew(&e.ID, &e.UserID, &e.CreatedAt, &e.UpdatedAt)
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}
	if c.remoteWritable() {
		created, err := c.remote.CreateExpense(ctx, e)
		if err == nil {
			return created, c.mirrorExpense(created)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Msg("expense create rejected")
			return domain.Expense{}, false
		}
		log.Warn().Err(err).Msg("remote expense create failed, queueing")
	}
	ok := c.mirrorExpense(e) && c.queue.Enqueue(domain.EntityExpense, OpCreate, e)
	return e, ok
}

// UpdateExpense applies a full-record update.
func (c *Coordinator) UpdateExpense(ctx context.Context, e domain.Expense) (domain.Expense, bool) {
	e.UpdatedAt = time.Now().UTC()
	if c.remoteWritable() {
		updated, err := c.remote.UpdateExpense(ctx, e.ID, e)
		if err == nil {
			return updated, c.mirrorExpense(updated)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Str("id", e.ID).Msg("expense update rejected")
			return domain.Expense{}, false
		}
		log.Warn().Err(err).Str("id", e.ID).Msg("remote expense update failed, queueing")
	}
	ok := c.mirrorExpense(e) && c.queue.Enqueue(domain.EntityExpense, OpUpdate, e)
	return e, ok
}

// DeleteExpense removes an expense.
func (c *Coordinator) DeleteExpense(ctx context.Context, id string) bool {
	if c.remoteWritable() {
		if err := c.remote.DeleteExpense(ctx, id); err == nil {
			return c.dropExpenseFromCache(id)
		} else if port.KindOf(err) == port.KindValidation {
			log.Warn().Err(err).Str("id", id).Msg("expense delete rejected")
			return false
		} else {
			log.Warn().Err(err).Str("id", id).Msg("remote expense delete failed, queueing")
		}
	}
	return c.dropExpenseFromCache(id) && c.queue.Enqueue(domain.EntityExpense, OpDelete, domain.Expense{ID: id})
}

// SaveProfile creates or replaces the user's profile.
func (c *Coordinator) SaveProfile(ctx context.Context, p domain.Profile) (domain.Profile, bool) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	if p.UserID == "" {
		p.UserID = c.modes.UserID()
	}
	p.UpdatedAt = now
	if c.remoteWritable() {
		saved, err := c.remote.SaveProfile(ctx, p)
		if err == nil {
			return saved, c.cache.Set(keyProfile, saved)
		}
		if kind := port.KindOf(err); kind == port.KindValidation {
			log.Warn().Err(err).Msg("profile save rejected")
			return domain.Profile{}, false
		}
		log.Warn().Err(err).Msg("remote profile save failed, queueing")
	}
	ok := c.cache.Set(keyProfile, p) && c.queue.Enqueue(domain.EntityProfile, OpUpdate, p)
	return p, ok
}

// --- cache mirroring ---

func (c *Coordinator) mirrorPortfolio(p domain.Portfolio) bool {
	var ps []domain.Portfolio
	c.cache.Get(keyPortfolios, &ps)
	return c.cache.Set(keyPortfolios, upsertByID(ps, p, func(x domain.Portfolio) string { return x.ID }))
}

func (c *Coordinator) mirrorHolding(h domain.Holding) bool {
	var hs []domain.Holding
	c.cache.Get(keyHoldings, &hs)
	return c.cache.Set(keyHoldings, upsertByID(hs, h, func(x domain.Holding) string { return x.ID }))
}

func (c *Coordinator) mirrorExpense(e domain.Expense) bool {
	var es []domain.Expense
	c.cache.Get(keyExpenses, &es)
	return c.cache.Set(keyExpenses, upsertByID(es, e, func(x domain.Expense) string { return x.ID }))
}

func (c *Coordinator) cachedHoldingsOf(portfolioID string) []domain.Holding {
	var hs []domain.Holding
	c.cache.Get(keyHoldings, &hs)
	out := make([]domain.Holding, 0, len(hs))
	for _, h := range hs {
		if h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	return out
}

func (c *Coordinator) dropPortfolioFromCache(id string) bool {
	var ps []domain.Portfolio
	c.cache.Get(keyPortfolios, &ps)
	ok := c.cache.Set(keyPortfolios, removeByID(ps, id, func(x domain.Portfolio) string { return x.ID }))

	// Composition invariant: holdings never outlive their portfolio.
	var hs []domain.Holding
	c.cache.Get(keyHoldings, &hs)
	kept := hs[:0]
	for _, h := range hs {
		if h.PortfolioID != id {
			kept = append(kept, h)
		}
	}
	return c.cache.Set(keyHoldings, kept) && ok
}

func (c *Coordinator) dropHoldingFromCache(id string) bool {
	var hs []domain.Holding
	c.cache.Get(keyHoldings, &hs)
	return c.cache.Set(keyHoldings, removeByID(hs, id, func(x domain.Holding) string { return x.ID }))
}

func (c *Coordinator) dropExpenseFromCache(id string) bool {
	var es []domain.Expense
	c.cache.Get(keyExpenses, &es)
	return c.cache.Set(keyExpenses, removeByID(es, id, func(x domain.Expense) string { return x.ID }))
}

func upsertByID[T any](list []T, item T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(item) {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func removeByID[T any](list []T, target string, id func(T) string) []T {
	out := make([]T, 0, len(list))
	for _, x := range list {
		if id(x) != target {
			out = append(out, x)
		}
	}
	return out
}
