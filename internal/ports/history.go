package ports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/ratelimiting"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

func MakeGetHistoryHandler(
	getCycleStats func(ctx context.Context, limit int) ([]domain.CycleStats, error),
	allowedOrigins *DomainSuffixes,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(60),
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
		limit := defaultHistoryLimit
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
				writeJSONError(w, r, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		stats, err := getCycleStats(r.Context(), limit)
		if err != nil {
			writeJSONError(w, r, http.StatusInternalServerError, "failed to get history")
			return
		}

		writeJSON(w, r, http.StatusOK, struct {
			Cycles []cycleStatsResponse `json:"cycles"`
		}{Cycles: cycleStatsToResponse(stats)})
	}

	return middleware(handler)
}
