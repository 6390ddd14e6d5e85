package userprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/adapters/cache"
	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
)

// BackendUserProvider fetches user batches from the backend and resolves
// their locations, memoizing resolved locations per pubkey so users seen
// before skip the process round trip.
type BackendUserProvider struct {
	api           BackendAPI
	locationCache cache.Cache[domain.Location]
}

func NewBackendUserProvider(api BackendAPI, locationCache cache.Cache[domain.Location]) *BackendUserProvider {
	return &BackendUserProvider{
		api:           api,
		locationCache: locationCache,
	}
}

func (p *BackendUserProvider) FetchUsers(ctx context.Context, since *time.Time) ([]domain.UserRecord, error) {
	logger := logging.FromContext(ctx)

	rawUsers, err := p.api.GetUsers(ctx, since)
	if err != nil {
		// NOTE: BackendAPI implementations handle their own error reporting
		return nil, fmt.Errorf("could not get users: %w", err)
	}

	locationByPubkey := make(map[string]domain.Location)
	var unresolved []RawUser
	seen := make(map[string]struct{})
	for _, raw := range rawUsers {
		if raw.Pubkey == "" {
			continue
		}
		if location, ok := p.locationCache.Get(raw.Pubkey); ok {
			locationByPubkey[raw.Pubkey] = location
			continue
		}
		if _, ok := seen[raw.Pubkey]; ok {
			continue
		}
		seen[raw.Pubkey] = struct{}{}
		unresolved = append(unresolved, raw)
	}

	if len(unresolved) > 0 {
		processed, err := p.api.ProcessUsers(ctx, unresolved)
		if err != nil {
			// NOTE: BackendAPI implementations handle their own error reporting
			return nil, fmt.Errorf("could not process users: %w", err)
		}

		for _, user := range processed {
			location := locationFromRaw(user.Location)
			if location == nil {
				continue
			}
			locationByPubkey[user.Pubkey] = *location
			if location.Valid() {
				// Fallback locations may resolve properly later; don't pin them
				p.locationCache.Set(user.Pubkey, *location)
			}
		}
	}

	records := make([]domain.UserRecord, 0, len(rawUsers))
	for _, raw := range rawUsers {
		if raw.Pubkey == "" {
			continue
		}
		var location *domain.Location
		if resolved, ok := locationByPubkey[raw.Pubkey]; ok {
			location = &resolved
		}
		records = append(records, recordFromRaw(raw, location))
	}

	logger.Info("Fetched users from backend",
		"users", len(records),
		"resolved", len(unresolved),
		"cached", len(records)-len(unresolved),
	)
	return records, nil
}
