package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ledgersync/internal/domain"
)

// Op is a queued mutation's operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

const keyQueue = "queue"

// MutationEntry is one pending write. Entries are immutable once
// enqueued, except for the attempt counter which tracks transport
// retries across sync cycles.
type MutationEntry struct {
	ID         string            `json:"id"`
	EntityType domain.EntityType `json:"entity_type"`
	Op         Op                `json:"op"`
	Payload    json.RawMessage   `json:"payload"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	Attempts   int               `json:"attempts"`
}

// MutationQueue is a durable FIFO log of writes pending reconciliation
// with the remote store. It is persisted through the cache after every
// change; removal is modeled as filtering by entry id so a partial drain
// never reorders survivors.
type MutationQueue struct {
	mu      sync.Mutex
	cache   *Cache
	entries []MutationEntry
}

// NewMutationQueue loads any persisted queue from the cache.
func NewMutationQueue(cache *Cache) *MutationQueue {
	q := &MutationQueue{cache: cache}
	var entries []MutationEntry
	if cache.Get(keyQueue, &entries) {
		q.entries = entries
	}
	return q
}

// Enqueue appends a mutation. Returns false when the payload cannot be
// serialized or the queue cannot be persisted.
func (q *MutationQueue) Enqueue(entity domain.EntityType, op Op, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Str("entity", string(entity)).Str("op", string(op)).Err(err).Msg("queue payload marshal failed")
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, MutationEntry{
		ID:         uuid.NewString(),
		EntityType: entity,
		Op:         op,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	})
	return q.persistLocked()
}

// Entries returns the pending entries in enqueue order.
func (q *MutationQueue) Entries() []MutationEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]MutationEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of pending entries.
func (q *MutationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Remove drops the entry with the given id after its remote application
// was confirmed or permanently abandoned.
func (q *MutationQueue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	q.persistLocked()
}

// BumpAttempts increments the retry counter for an entry that failed
// with a transport error and returns the new count.
func (q *MutationQueue) BumpAttempts(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Attempts++
			q.persistLocked()
			return q.entries[i].Attempts
		}
	}
	return 0
}

// Clear empties the queue.
func (q *MutationQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.persistLocked()
}

func (q *MutationQueue) persistLocked() bool {
	entries := q.entries
	if entries == nil {
		entries = []MutationEntry{}
	}
	if !q.cache.Set(keyQueue, entries) {
		log.Warn().Int("pending", len(entries)).Msg("mutation queue persist failed")
		return false
	}
	return true
}
