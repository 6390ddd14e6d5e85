package ports

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/ratelimiting"
)

func MakeAutoUpdateHandler(
	setAutoUpdateEnabled func(enabled bool),
	autoUpdateEnabled func() bool,
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
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "failed to read request body")
			return
		}
		request := struct {
			Enabled *bool `json:"enabled"`
		}{}
		err = json.Unmarshal(body, &request)
		if err != nil || request.Enabled == nil {
			writeJSONError(w, r, http.StatusBadRequest, "failed to parse request body")
			return
		}

		setAutoUpdateEnabled(*request.Enabled)

		writeJSON(w, r, http.StatusOK, struct {
			Enabled bool `json:"enabled"`
		}{Enabled: autoUpdateEnabled()})
	}

	return middleware(handler)
}
