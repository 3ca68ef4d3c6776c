package service

import (
	"encoding/json"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"ledgersync/internal/application/port"
)

// EnvelopeVersion is stamped on every cache write so that incompatible
// cached shapes from older builds are detected and discarded on read.
const EnvelopeVersion = "1.0"

// envelope is the persisted cache entry format.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
}

// CacheUsage is a diagnostics snapshot of cache activity since startup.
type CacheUsage struct {
	Writes       int64
	BytesWritten int64
	Keys         int
}

// Cache is the typed wrapper over the host key-value store. Reads never
// fail: a missing, corrupt or version-mismatched entry leaves the
// caller's default untouched. Writes degrade to a false return on quota
// or store errors.
type Cache struct {
	kv     port.KV
	ns     string
	writes atomic.Int64
	bytes  atomic.Int64
}

// NewCache wraps kv with the given key namespace (e.g. "ledgersync").
func NewCache(kv port.KV, namespace string) *Cache {
	if namespace == "" {
		namespace = "ledgersync"
	}
	return &Cache{kv: kv, ns: namespace}
}

func (c *Cache) key(k string) string { return c.ns + ":" + k }

// Get unmarshals the cached value under key into out and reports whether
// a usable entry was found. On any failure out is left unmodified so the
// caller's default survives.
func (c *Cache) Get(key string, out any) bool {
	raw, ok, err := c.kv.GetItem(c.key(key))
	if err != nil || !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("corrupt cache entry, using default")
		return false
	}
	if env.Version != EnvelopeVersion {
		log.Warn().Str("key", key).Str("version", env.Version).Msg("stale cache entry version, using default")
		return false
	}
	// Decode into a fresh value: a failing unmarshal may have filled part
	// of its target before erroring, and the caller's default must survive.
	tmp := reflect.New(reflect.TypeOf(out).Elem())
	if err := json.Unmarshal(env.Data, tmp.Interface()); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache payload mismatch, using default")
		return false
	}
	reflect.ValueOf(out).Elem().Set(tmp.Elem())
	return true
}

// Set stores v under key with a stamped write timestamp and format
// version. Quota or store failures return false, never an error.
func (c *Cache) Set(key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache marshal failed")
		return false
	}
	env := envelope{
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   EnvelopeVersion,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return false
	}
	if err := c.kv.SetItem(c.key(key), string(raw)); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache write failed")
		return false
	}
	c.writes.Add(1)
	c.bytes.Add(int64(len(raw)))
	return true
}

// Remove deletes the entry under key.
func (c *Cache) Remove(key string) bool {
	if err := c.kv.RemoveItem(c.key(key)); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache remove failed")
		return false
	}
	return true
}

// Clear removes every entry in this cache's namespace. Keys owned by
// other components of the host store are untouched.
func (c *Cache) Clear() bool {
	keys, err := c.kv.Keys(c.ns + ":")
	if err != nil {
		log.Warn().Err(err).Msg("cache clear failed listing keys")
		return false
	}
	ok := true
	for _, k := range keys {
		if err := c.kv.RemoveItem(k); err != nil {
			log.Warn().Str("key", k).Err(err).Msg("cache clear failed removing key")
			ok = false
		}
	}
	return ok
}

// Usage returns write counters and the current key count for diagnostics.
func (c *Cache) Usage() CacheUsage {
	keys, err := c.kv.Keys(c.ns + ":")
	if err != nil {
		log.Warn().Err(err).Msg("cache usage key listing failed")
	}
	return CacheUsage{
		Writes:       c.writes.Load(),
		BytesWritten: c.bytes.Load(),
		Keys:         len(keys),
	}
}
