package service

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"ledgersync/internal/domain"
)

// exportPayload is the transportable text format produced by ExportData.
type exportPayload struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Portfolios []domain.Portfolio `json:"portfolios"`
	Holdings   []domain.Holding   `json:"holdings"`
	Expenses   []domain.Expense   `json:"expenses"`
	Profile    *domain.Profile    `json:"profile,omitempty"`
}

// ExportData serializes all cached domain data plus a timestamp to JSON.
func (c *Coordinator) ExportData() (string, error) {
	payload := exportPayload{
		Version:    EnvelopeVersion,
		ExportedAt: time.Now().UTC(),
		Portfolios: []domain.Portfolio{},
		Holdings:   []domain.Holding{},
		Expenses:   []domain.Expense{},
	}
	c.cache.Get(keyPortfolios, &payload.Portfolios)
	c.cache.Get(keyHoldings, &payload.Holdings)
	c.cache.Get(keyExpenses, &payload.Expenses)
	var p domain.Profile
	if c.cache.Get(keyProfile, &p) {
		payload.Profile = &p
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ImportData parses an export and overwrites the cached domain data.
// Malformed input returns false with nothing applied: the payload is
// fully decoded before the first cache write.
func (c *Coordinator) ImportData(text string) bool {
	var payload exportPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		log.Warn().Err(err).Msg("import rejected, malformed payload")
		return false
	}
	if payload.Version != EnvelopeVersion {
		log.Warn().Str("version", payload.Version).Msg("import rejected, unsupported version")
		return false
	}
	if payload.Portfolios == nil {
		payload.Portfolios = []domain.Portfolio{}
	}
	if payload.Holdings == nil {
		payload.Holdings = []domain.Holding{}
	}
	if payload.Expenses == nil {
		payload.Expenses = []domain.Expense{}
	}
	ok := c.cache.Set(keyPortfolios, payload.Portfolios)
	ok = c.cache.Set(keyHoldings, payload.Holdings) && ok
	ok = c.cache.Set(keyExpenses, payload.Expenses) && ok
	if payload.Profile != nil {
		ok = c.cache.Set(keyProfile, *payload.Profile) && ok
	} else {
		// an import replaces everything, including a profile it lacks
		ok = c.cache.Remove(keyProfile) && ok
	}
	return ok
}

// ClearAll empties the cache and the mutation queue together.
func (c *Coordinator) ClearAll() bool {
	c.queue.Clear()
	ok := c.cache.Clear()
	c.mu.Lock()
	c.lastSync = nil
	c.mu.Unlock()
	log.Info().Msg("local data cleared")
	return ok
}
