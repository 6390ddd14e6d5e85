package ports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/livemap"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/ratelimiting"
)

// MakeRefreshHandler triggers a full manual load. Load failures are not
// request failures: the resulting snapshot carries the user-facing error, so
// the handler responds 200 with that snapshot. Only a load that never started
// gets an error status.
func MakeRefreshHandler(
	triggerManualLoad func(ctx context.Context) error,
	getSnapshot func() livemap.Snapshot,
	allowedOrigins *DomainSuffixes,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		BuildCORSMiddleware(allowedOrigins),
		buildMetricsMiddleware(),
		NewRateLimitMiddleware(ipRateLimiter),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		err := triggerManualLoad(r.Context())
		switch {
		case errors.Is(err, domain.ErrFetchInProgress):
			writeJSONError(w, r, http.StatusConflict, "a load is already in progress")
			return
		case errors.Is(err, domain.ErrSchedulerTornDown):
			writeJSONError(w, r, http.StatusServiceUnavailable, "shutting down")
			return
		}

		writeJSON(w, r, http.StatusOK, snapshotToResponse(getSnapshot()))
	}

	return middleware(handler)
}
