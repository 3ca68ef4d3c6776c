package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledgersync/internal/infrastructure/storage/memory"
)

func TestCacheSetWrapsEnvelope(t *testing.T) {
	kv := memory.New()
	cache := NewCache(kv, "test")

	require.True(t, cache.Set("expenses", []string{"a", "b"}))

	raw, ok, err := kv.GetItem("test:expenses")
	require.NoError(t, err)
	require.True(t, ok)

	var env struct {
		Data      json.RawMessage `json:"data"`
		Timestamp string          `json:"timestamp"`
		Version   string          `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.Equal(t, EnvelopeVersion, env.Version)
	_, err = time.Parse(time.RFC3339, env.Timestamp)
	require.NoError(t, err, "timestamp must be RFC3339")
	require.JSONEq(t, `["a","b"]`, string(env.Data))
}

func TestCacheGetMissingKeepsDefault(t *testing.T) {
	cache := NewCache(memory.New(), "test")

	out := []string{"default"}
	require.False(t, cache.Get("nope", &out))
	require.Equal(t, []string{"default"}, out)
}

func TestCacheGetCorruptKeepsDefault(t *testing.T) {
	kv := memory.New()
	cache := NewCache(kv, "test")

	require.NoError(t, kv.SetItem("test:expenses", "definitely not json"))

	out := []string{"default"}
	require.False(t, cache.Get("expenses", &out))
	require.Equal(t, []string{"default"}, out)
}

func TestCacheGetShapeMismatchKeepsDefault(t *testing.T) {
	kv := memory.New()
	cache := NewCache(kv, "test")

	// a bare unmarshal would fill index 0 before failing on "x"
	require.NoError(t, kv.SetItem("test:nums", `{"data":[1,"x",3],"timestamp":"2026-01-01T00:00:00Z","version":"1.0"}`))

	out := []int{7}
	require.False(t, cache.Get("nums", &out))
	require.Equal(t, []int{7}, out, "partial decode must not leak into the default")
}

func TestCacheGetVersionMismatchKeepsDefault(t *testing.T) {
	kv := memory.New()
	cache := NewCache(kv, "test")

	require.NoError(t, kv.SetItem("test:expenses", `{"data":["x"],"timestamp":"2020-01-01T00:00:00Z","version":"0.9"}`))

	out := []string{"default"}
	require.False(t, cache.Get("expenses", &out))
	require.Equal(t, []string{"default"}, out)
}

func TestCacheSetQuotaExceededReturnsFalse(t *testing.T) {
	kv := memory.New()
	kv.MaxBytes = 16
	cache := NewCache(kv, "test")

	require.False(t, cache.Set("expenses", []string{"a very long payload that will not fit"}))
}

func TestCacheClearOnlyOwnNamespace(t *testing.T) {
	kv := memory.New()
	cache := NewCache(kv, "test")

	require.NoError(t, kv.SetItem("other:data", "keep me"))
	cache.Set("a", 1)
	cache.Set("b", 2)

	require.True(t, cache.Clear())

	_, ok, _ := kv.GetItem("other:data")
	require.True(t, ok, "foreign keys must survive Clear")
	var out int
	require.False(t, cache.Get("a", &out))
}

func TestCacheUsageCounts(t *testing.T) {
	cache := NewCache(memory.New(), "test")

	cache.Set("a", 1)
	cache.Set("b", 2)

	usage := cache.Usage()
	require.EqualValues(t, 2, usage.Writes)
	require.Greater(t, usage.BytesWritten, int64(0))
	require.Equal(t, 2, usage.Keys)
}
