package userprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbadacarbaYK/sociostr/internal/adapters/cache"
	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

type mockedBackendAPIForTest struct {
	t            *testing.T
	users        []RawUser
	usersErr     error
	processed    map[string]*RawLocation
	processErr   error
	processCalls [][]RawUser
}

func (m *mockedBackendAPIForTest) GetUsers(ctx context.Context, since *time.Time) ([]RawUser, error) {
	m.t.Helper()
	return m.users, m.usersErr
}

func (m *mockedBackendAPIForTest) ProcessUsers(ctx context.Context, users []RawUser) ([]ProcessedUser, error) {
	m.t.Helper()
	m.processCalls = append(m.processCalls, users)
	if m.processErr != nil {
		return nil, m.processErr
	}
	out := make([]ProcessedUser, 0, len(users))
	for _, user := range users {
		out = append(out, ProcessedUser{RawUser: user, Location: m.processed[user.Pubkey]})
	}
	return out, nil
}

func TestBackendUserProvider(t *testing.T) {
	t.Parallel()

	nip05Location := &RawLocation{Latitude: 59.91, Longitude: 10.75, Confidence: 0.9, Method: "nip05", Country: "NO"}

	t.Run("resolves locations for fetched users", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:         t,
			users:     []RawUser{{Pubkey: "aa", Name: "alice", ActivityType: "zap"}},
			processed: map[string]*RawLocation{"aa": nip05Location},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)

		require.Len(t, records, 1)
		assert.Equal(t, "aa", records[0].ID)
		assert.Equal(t, "alice", records[0].DisplayName)
		assert.Equal(t, domain.ActivityZap, records[0].ActivityType)
		require.NotNil(t, records[0].Location)
		assert.Equal(t, "nip05", records[0].Location.Method)
	})

	t.Run("cached locations skip the process round trip", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:         t,
			users:     []RawUser{{Pubkey: "aa"}},
			processed: map[string]*RawLocation{"aa": nip05Location},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		_, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)
		require.Len(t, api.processCalls, 1)

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)

		assert.Len(t, api.processCalls, 1, "second fetch should reuse the cached location")
		require.Len(t, records, 1)
		require.NotNil(t, records[0].Location)
		assert.Equal(t, "nip05", records[0].Location.Method)
	})

	t.Run("fallback locations are attached but not cached", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:         t,
			users:     []RawUser{{Pubkey: "aa"}},
			processed: map[string]*RawLocation{"aa": {Latitude: 20, Longitude: 0, Method: "fallback"}},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].Location)
		assert.True(t, records[0].Location.IsFallback())

		_, err = provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)
		assert.Len(t, api.processCalls, 2, "fallback results must be resolved again next time")
	})

	t.Run("users without a pubkey are dropped", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:     t,
			users: []RawUser{{Pubkey: ""}, {Pubkey: "aa"}},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)

		require.Len(t, records, 1)
		assert.Nil(t, records[0].Location)
	})

	t.Run("duplicate pubkeys are processed once", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:         t,
			users:     []RawUser{{Pubkey: "aa", ActivityType: "post"}, {Pubkey: "aa", ActivityType: "zap"}},
			processed: map[string]*RawLocation{"aa": nip05Location},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)

		require.Len(t, api.processCalls, 1)
		assert.Len(t, api.processCalls[0], 1)
		// Both sightings are returned; the store decides which one wins
		assert.Len(t, records, 2)
	})

	t.Run("fetch errors are passed through", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{t: t, usersErr: domain.ErrTemporarilyUnavailable}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		_, err := provider.FetchUsers(t.Context(), nil)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
	})

	t.Run("process errors fail the fetch", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:          t,
			users:      []RawUser{{Pubkey: "aa"}},
			processErr: errors.New("boom"),
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		_, err := provider.FetchUsers(t.Context(), nil)
		require.Error(t, err)
	})

	t.Run("unknown activity defaults to profile", func(t *testing.T) {
		t.Parallel()

		api := &mockedBackendAPIForTest{
			t:     t,
			users: []RawUser{{Pubkey: "aa", ActivityType: "reaction"}},
		}
		provider := NewBackendUserProvider(api, cache.NewBasicCache[domain.Location]())

		records, err := provider.FetchUsers(t.Context(), nil)
		require.NoError(t, err)

		require.Len(t, records, 1)
		assert.Equal(t, domain.ActivityProfile, records[0].ActivityType)
	})
}
