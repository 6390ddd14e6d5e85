package livemap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbadacarbaYK/sociostr/internal/domaintest"
	"github.com/arbadacarbaYK/sociostr/internal/livemap"
)

func TestEvict(t *testing.T) {
	t.Parallel()

	ttl := 300 * time.Second

	t.Run("record past ttl is removed", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-c": domaintest.NewRecordBuilder("npub-c", baseTime).Build(),
		}

		result := livemap.Evict(store, baseTime.Add(301*time.Second), ttl)

		assert.Len(t, result, 0)
	})

	t.Run("record exactly at ttl is kept", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-c": domaintest.NewRecordBuilder("npub-c", baseTime).Build(),
		}

		result := livemap.Evict(store, baseTime.Add(300*time.Second), ttl)

		assert.Len(t, result, 1)
	})

	t.Run("no surviving record is older than ttl", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{}
		for i, age := range []time.Duration{0, 60 * time.Second, 299 * time.Second, 300 * time.Second, 301 * time.Second, time.Hour} {
			id := string(rune('a' + i))
			store[id] = domaintest.NewRecordBuilder(id, baseTime.Add(-age)).Build()
		}

		result := livemap.Evict(store, baseTime, ttl)

		require.Len(t, result, 4)
		for _, record := range result {
			assert.LessOrEqual(t, baseTime.Sub(record.LastSeen), ttl)
		}
	})

	t.Run("input store is not mutated", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-old": domaintest.NewRecordBuilder("npub-old", baseTime.Add(-time.Hour)).Build(),
		}

		result := livemap.Evict(store, baseTime, ttl)

		assert.Len(t, result, 0)
		assert.Len(t, store, 1)
	})
}
