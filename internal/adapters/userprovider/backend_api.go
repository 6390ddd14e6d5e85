package userprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/config"
	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/ratelimiting"
	"github.com/arbadacarbaYK/sociostr/internal/reporting"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RequestLimiter interface {
	Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool
}

const backendMaxOperationTime = 10 * time.Second

// RawUser is a user sighting as reported by the backend, before location
// resolution.
type RawUser struct {
	Pubkey       string `json:"pubkey"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	About        string `json:"about"`
	Picture      string `json:"picture"`
	ActivityType string `json:"activity_type"`
}

// RawLocation is the backend's resolved location payload.
type RawLocation struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Country    string  `json:"country,omitempty"`
}

// ProcessedUser augments RawUser with a resolved location.
type ProcessedUser struct {
	RawUser
	Location *RawLocation `json:"location"`
}

// BackendAPI is the HTTP contract of the location-resolving backend.
type BackendAPI interface {
	// GetUsers returns activity since the given time, or the full historical
	// set when since is nil.
	GetUsers(ctx context.Context, since *time.Time) ([]RawUser, error)
	// ProcessUsers asks the backend to resolve locations for the given users.
	ProcessUsers(ctx context.Context, users []RawUser) ([]ProcessedUser, error)
}

type backendAPIImpl struct {
	httpClient HttpClient
	limiter    RequestLimiter
	baseURL    string
}

type usersResponse struct {
	Users []RawUser `json:"users"`
}

type processUsersRequest struct {
	Users []RawUser `json:"users"`
}

type processUsersResponse struct {
	Users []ProcessedUser `json:"users"`
}

func (api *backendAPIImpl) GetUsers(ctx context.Context, since *time.Time) ([]RawUser, error) {
	logger := logging.FromContext(ctx)
	url := fmt.Sprintf("%s/nostr-users", api.baseURL)
	if since != nil {
		url = fmt.Sprintf("%s?since=%s", url, strconv.FormatInt(since.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	start := time.Now()
	var resp *http.Response
	ran := api.limiter.Limit(ctx, backendMaxOperationTime, func() {
		resp, err = api.httpClient.Do(req)
	})
	if !ran {
		return nil, fmt.Errorf("%w: rate limited before fetching users", domain.ErrTemporarilyUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get users: %w", domain.ErrTemporarilyUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read users response: %w", domain.ErrTemporarilyUnavailable, err)
	}
	logger.Info("backend request completed", "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: backend returned status %d", domain.ErrTemporarilyUnavailable, resp.StatusCode)
		reporting.Report(ctx, err, map[string]string{"response": string(data)})
		return nil, err
	}

	var parsed usersResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		err := fmt.Errorf("failed to parse users response: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return parsed.Users, nil
}

func (api *backendAPIImpl) ProcessUsers(ctx context.Context, users []RawUser) ([]ProcessedUser, error) {
	logger := logging.FromContext(ctx)
	url := fmt.Sprintf("%s/process-users", api.baseURL)

	body, err := json.Marshal(processUsersRequest{Users: users})
	if err != nil {
		err := fmt.Errorf("failed to marshal process request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var resp *http.Response
	ran := api.limiter.Limit(ctx, backendMaxOperationTime, func() {
		resp, err = api.httpClient.Do(req)
	})
	if !ran {
		return nil, fmt.Errorf("%w: rate limited before processing users", domain.ErrTemporarilyUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to process users: %w", domain.ErrTemporarilyUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read process response: %w", domain.ErrTemporarilyUnavailable, err)
	}
	logger.Info("backend request completed", "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: backend returned status %d", domain.ErrTemporarilyUnavailable, resp.StatusCode)
		reporting.Report(ctx, err, map[string]string{"response": string(data)})
		return nil, err
	}

	var parsed processUsersResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		err := fmt.Errorf("failed to parse process response: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return parsed.Users, nil
}

func NewBackendAPI(httpClient HttpClient, baseURL string) BackendAPI {
	// The backend has no published rate limit. Stay well below anything that
	// could trip its upstream providers.
	limiter := ratelimiting.NewWindowLimitRequestLimiter(120, time.Minute, time.Now, time.After)

	return &backendAPIImpl{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    baseURL,
	}
}

type mockedBackendAPI struct{}

func (api *mockedBackendAPI) GetUsers(ctx context.Context, since *time.Time) ([]RawUser, error) {
	return []RawUser{
		{Pubkey: "82341f882b6eabcd2ba7f1ef90aad961cf074af15b9ef44a09f9d2a8fbfbe6a2", Name: "dev-user", ActivityType: "post"},
	}, nil
}

func (api *mockedBackendAPI) ProcessUsers(ctx context.Context, users []RawUser) ([]ProcessedUser, error) {
	processed := make([]ProcessedUser, 0, len(users))
	for _, user := range users {
		processed = append(processed, ProcessedUser{
			RawUser:  user,
			Location: &RawLocation{Latitude: 59.91, Longitude: 10.75, Confidence: 0.9, Method: "nip05", Country: "NO"},
		})
	}
	return processed, nil
}

func NewBackendAPIOrMock(config config.Config, httpClient HttpClient) (BackendAPI, error) {
	if config.BackendBaseURL() != "" {
		return NewBackendAPI(httpClient, config.BackendBaseURL()), nil
	}
	if config.IsDevelopment() {
		return &mockedBackendAPI{}, nil
	}
	return nil, fmt.Errorf("Missing backend base URL in non-development environment")
}
