package livemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbadacarbaYK/sociostr/internal/domaintest"
	"github.com/arbadacarbaYK/sociostr/internal/livemap"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		stats := livemap.Aggregate(make(livemap.RecordStore))

		assert.Equal(t, 0, stats.TotalUsers)
		assert.Equal(t, 0, stats.UsersWithLocation)
		assert.Equal(t, 0, stats.UniqueLocationGroups)
	})

	t.Run("all users located", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-a": domaintest.NewRecordBuilder("npub-a", baseTime).WithLocation(59.9, 10.7, "nip05").Build(),
			"npub-b": domaintest.NewRecordBuilder("npub-b", baseTime).WithLocation(48.8, 2.3, "ip").Build(),
			"npub-c": domaintest.NewRecordBuilder("npub-c", baseTime).WithLocation(40.7, -74.0, "nip05").Build(),
		}

		stats := livemap.Aggregate(store)

		assert.Equal(t, 3, stats.TotalUsers)
		assert.Equal(t, 3, stats.UsersWithLocation)
		assert.Equal(t, 2, stats.UniqueLocationGroups)
	})

	t.Run("groups by method not country", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-a": domaintest.NewRecordBuilder("npub-a", baseTime).WithLocation(59.9, 10.7, "nip05").WithCountry("NO").Build(),
			"npub-b": domaintest.NewRecordBuilder("npub-b", baseTime).WithLocation(48.8, 2.3, "nip05").WithCountry("FR").Build(),
		}

		stats := livemap.Aggregate(store)

		assert.Equal(t, 1, stats.UniqueLocationGroups, "same method in different countries is one group")
	})

	t.Run("missing, zero and fallback locations are not counted", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{
			"npub-none":     domaintest.NewRecordBuilder("npub-none", baseTime).Build(),
			"npub-zero":     domaintest.NewRecordBuilder("npub-zero", baseTime).WithLocation(0, 0, "ip").Build(),
			"npub-fallback": domaintest.NewRecordBuilder("npub-fallback", baseTime).WithFallbackLocation().Build(),
			"npub-real":     domaintest.NewRecordBuilder("npub-real", baseTime).WithLocation(51.5, -0.1, "nip05").Build(),
		}

		stats := livemap.Aggregate(store)

		assert.Equal(t, 4, stats.TotalUsers)
		assert.Equal(t, 1, stats.UsersWithLocation)
		assert.Equal(t, 1, stats.UniqueLocationGroups)
	})

	t.Run("stats consistency", func(t *testing.T) {
		t.Parallel()

		store := livemap.RecordStore{}
		for i := 0; i < 10; i++ {
			id := string(rune('a' + i))
			builder := domaintest.NewRecordBuilder(id, baseTime)
			if i%2 == 0 {
				builder = builder.WithLocation(float64(i)+1, float64(i)+1, "ip")
			}
			store[id] = builder.Build()
		}

		stats := livemap.Aggregate(store)

		assert.Equal(t, len(store), stats.TotalUsers)
		assert.LessOrEqual(t, stats.UsersWithLocation, stats.TotalUsers)
	})
}
