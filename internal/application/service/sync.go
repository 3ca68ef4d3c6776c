package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ledgersync/internal/application/port"
	"ledgersync/internal/domain"
)

// maxDrainAttempts caps transport retries per queue entry across sync
// cycles. An entry exceeding the cap is dropped and surfaced in the
// summary as needing manual resolution, so the queue cannot grow forever.
const maxDrainAttempts = 5

// SyncSummary reports the outcome of one reconciliation cycle.
type SyncSummary struct {
	Uploaded   map[string]int `json:"uploaded"`
	Downloaded map[string]int `json:"downloaded"`
	Errors     []string       `json:"errors"`
}

// baseline is the authoritative remote state downloaded at the start of
// a sync cycle, updated in place as the queue drains.
type baseline struct {
	portfolios []domain.Portfolio
	holdings   []domain.Holding
	expenses   []domain.Expense
	profile    *domain.Profile
}

// Sync downloads remote state, drains the mutation queue in FIFO order
// and merges the result into the cache. At most one sync runs at a time;
// a concurrent call fails immediately with ErrSyncInProgress. A sync in
// flight does not block domain reads or writes — they may observe a
// stale cache until the merge phase completes.
func (c *Coordinator) Sync(ctx context.Context) (*SyncSummary, error) {
	if !c.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer c.syncing.Store(false)

	if c.modes.Mode().Primary != StoreRemote {
		return nil, ErrCloudModeRequired
	}
	userID := c.modes.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	log.Info().Str("user_id", userID).Int("pending", c.queue.Len()).Msg("sync starting")

	base, err := c.download(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sync download: %w", err)
	}

	summary := &SyncSummary{
		Uploaded: map[string]int{},
		Downloaded: map[string]int{
			string(domain.EntityPortfolio): len(base.portfolios),
			string(domain.EntityHolding):   len(base.holdings),
			string(domain.EntityExpense):   len(base.expenses),
		},
	}
	if base.profile != nil {
		summary.Downloaded[string(domain.EntityProfile)] = 1
	}

	if err := c.drain(ctx, base, summary); err != nil {
		return summary, err
	}

	c.merge(base)

	now := time.Now().UTC()
	c.cache.Set(keyLastSync, now)
	c.mu.Lock()
	c.lastSync = &now
	c.mu.Unlock()

	log.Info().
		Interface("uploaded", summary.Uploaded).
		Interface("downloaded", summary.Downloaded).
		Int("errors", len(summary.Errors)).
		Msg("sync finished")
	return summary, nil
}

// download fetches the reconciliation baseline. A profile may simply not
// exist yet; only transport and auth failures abort the cycle.
func (c *Coordinator) download(ctx context.Context, userID string) (*baseline, error) {
	ps, err := c.remote.ListPortfolios(ctx, userID)
	if err != nil {
		return nil, err
	}
	hs, err := c.remote.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	es, err := c.remote.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	base := &baseline{portfolios: ps, holdings: hs, expenses: es}
	p, err := c.remote.FetchProfile(ctx, userID)
	switch {
	case err == nil:
		base.profile = &p
	case port.KindOf(err) == port.KindValidation:
		// no profile yet
	default:
		return nil, err
	}
	return base, nil
}

// drain replays queued mutations in enqueue order. Transport failures
// keep their entry for the next cycle (no head-of-line blocking);
// validation failures and conflict losers are dropped and reported; an
// auth failure aborts the drain since every later call would also fail.
func (c *Coordinator) drain(ctx context.Context, base *baseline, summary *SyncSummary) error {
	for _, entry := range c.queue.Entries() {
		if lost, why := loseByTimestamp(entry, base); lost {
			c.queue.Remove(entry.ID)
			summary.Errors = append(summary.Errors, why)
			continue
		}

		err := c.apply(ctx, entry, base)
		if err == nil {
			c.queue.Remove(entry.ID)
			summary.Uploaded[string(entry.EntityType)]++
			continue
		}

		switch port.KindOf(err) {
		case port.KindAuth:
			summary.Errors = append(summary.Errors, fmt.Sprintf("drain aborted, re-authentication required: %v", err))
			return err
		case port.KindValidation:
			c.queue.Remove(entry.ID)
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("dropped %s %s %s: %v", entry.Op, entry.EntityType, entry.ID, err))
		default: // transport: retried on the next sync
			attempts := c.queue.BumpAttempts(entry.ID)
			if attempts >= maxDrainAttempts {
				c.queue.Remove(entry.ID)
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("abandoned %s %s %s after %d attempts, manual resolution required", entry.Op, entry.EntityType, entry.ID, attempts))
				continue
			}
			log.Warn().Err(err).
				Str("entity", string(entry.EntityType)).
				Str("op", string(entry.Op)).
				Int("attempts", attempts).
				Msg("queued mutation deferred")
		}
	}
	return nil
}

// loseByTimestamp applies last-writer-wins: a queued update whose record
// is older than the downloaded baseline copy loses and is discarded.
func loseByTimestamp(entry MutationEntry, base *baseline) (bool, string) {
	if entry.Op != OpUpdate {
		return false, ""
	}
	var stamped struct {
		ID        string    `json:"id"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(entry.Payload, &stamped); err != nil {
		return false, ""
	}
	remote, ok := baselineUpdatedAt(entry.EntityType, stamped.ID, base)
	if !ok {
		return false, ""
	}
	if domain.NewerThan(remote, stamped.UpdatedAt) {
		return true, fmt.Sprintf("discarded local %s %s: remote copy is newer (%s > %s)",
			entry.EntityType, stamped.ID, remote.Format(time.RFC3339), stamped.UpdatedAt.Format(time.RFC3339))
	}
	return false, ""
}

func baselineUpdatedAt(entity domain.EntityType, id string, base *baseline) (time.Time, bool) {
	switch entity {
	case domain.EntityPortfolio:
		for _, p := range base.portfolios {
			if p.ID == id {
				return p.UpdatedAt, true
			}
		}
	case domain.EntityHolding:
		for _, h := range base.holdings {
			if h.ID == id {
				return h.UpdatedAt, true
			}
		}
	case domain.EntityExpense:
		for _, e := range base.expenses {
			if e.ID == id {
				return e.UpdatedAt, true
			}
		}
	case domain.EntityProfile:
		if base.profile != nil && base.profile.ID == id {
			return base.profile.UpdatedAt, true
		}
	}
	return time.Time{}, false
}

// apply replays one queue entry against the remote store and folds the
// confirmed result into the baseline. Remote-assigned timestamps are
// trusted over the client's own stamps.
func (c *Coordinator) apply(ctx context.Context, entry MutationEntry, base *baseline) error {
	switch entry.EntityType {
	case domain.EntityPortfolio:
		var p domain.Portfolio
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return &port.RemoteError{Kind: port.KindValidation, Op: "decode portfolio", Err: err}
		}
		switch entry.Op {
		case OpCreate:
			created, err := c.remote.CreatePortfolio(ctx, p)
			if err != nil {
				return err
			}
			base.portfolios = upsertByID(base.portfolios, created, func(x domain.Portfolio) string { return x.ID })
		case OpUpdate:
			updated, err := c.remote.UpdatePortfolio(ctx, p.ID, p)
			if err != nil {
				return err
			}
			base.portfolios = upsertByID(base.portfolios, updated, func(x domain.Portfolio) string { return x.ID })
		case OpDelete:
			if err := c.remote.DeletePortfolio(ctx, p.ID); err != nil {
				return err
			}
			base.portfolios = removeByID(base.portfolios, p.ID, func(x domain.Portfolio) string { return x.ID })
		}

	case domain.EntityHolding:
		var h domain.Holding
		if err := json.Unmarshal(entry.Payload, &h); err != nil {
			return &port.RemoteError{Kind: port.KindValidation, Op: "decode holding", Err: err}
		}
		switch entry.Op {
		case OpCreate:
			created, err := c.remote.CreateHolding(ctx, h)
			if err != nil {
				return err
			}
			base.holdings = upsertByID(base.holdings, created, func(x domain.Holding) string { return x.ID })
		case OpUpdate:
			updated, err := c.remote.UpdateHolding(ctx, h.ID, h)
			if err != nil {
				return err
			}
			base.holdings = upsertByID(base.holdings, updated, func(x domain.Holding) string { return x.ID })
		case OpDelete:
			if err := c.remote.DeleteHolding(ctx, h.ID); err != nil {
				return err
			}
			base.holdings = removeByID(base.holdings, h.ID, func(x domain.Holding) string { return x.ID })
		}

	case domain.EntityExpense:
		var e domain.Expense
		if err := json.Unmarshal(entry.Payload, &e); err != nil {
			return &port.RemoteError{Kind: port.KindValidation, Op: "decode expense", Err: err}
		}
		switch entry.Op {
		case OpCreate:
			created, err := c.remote.CreateExpense(ctx, e)
			if err != nil {
				return err
			}
			base.expenses = upsertByID(base.expenses, created, func(x domain.Expense) string { return x.ID })
		case OpUpdate:
			updated, err := c.remote.UpdateExpense(ctx, e.ID, e)
			if err != nil {
				return err
			}
			base.expenses = upsertByID(base.expenses, updated, func(x domain.Expense) string { return x.ID })
		case OpDelete:
			if err := c.remote.DeleteExpense(ctx, e.ID); err != nil {
				return err
			}
			base.expenses = removeByID(base.expenses, e.ID, func(x domain.Expense) string { return x.ID })
		}

	case domain.EntityProfile:
		var p domain.Profile
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return &port.RemoteError{Kind: port.KindValidation, Op: "decode profile", Err: err}
		}
		saved, err := c.remote.SaveProfile(ctx, p)
		if err != nil {
			return err
		}
		base.profile = &saved

	default:
		return &port.RemoteError{Kind: port.KindValidation, Op: "apply", Err: fmt.Errorf("unknown entity type %q", entry.EntityType)}
	}
	return nil
}

// merge writes the reconciled baseline into the cache as the new
// authoritative local state.
func (c *Coordinator) merge(base *baseline) {
	if base.portfolios == nil {
		base.portfolios = []domain.Portfolio{}
	}
	if base.holdings == nil {
		base.holdings = []domain.Holding{}
	}
	if base.expenses == nil {
		base.expenses = []domain.Expense{}
	}
	c.cache.Set(keyPortfolios, base.portfolios)
	c.cache.Set(keyHoldings, base.holdings)
	c.cache.Set(keyExpenses, base.expenses)
	if base.profile != nil {
		c.cache.Set(keyProfile, *base.profile)
	}
}
