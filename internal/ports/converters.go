package ports

import (
	"sort"
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/livemap"
)

type locationResponse struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Country    string  `json:"country,omitempty"`
}

type userResponse struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"displayName,omitempty"`
	About        string            `json:"about,omitempty"`
	PictureURL   string            `json:"pictureUrl,omitempty"`
	Location     *locationResponse `json:"location,omitempty"`
	ActivityType string            `json:"activityType"`
	LastSeen     time.Time         `json:"lastSeen"`
}

type statsResponse struct {
	TotalUsers           int `json:"totalUsers"`
	UsersWithLocation    int `json:"usersWithLocation"`
	UniqueLocationGroups int `json:"uniqueLocationGroups"`
}

type snapshotResponse struct {
	Users         []userResponse `json:"users"`
	Stats         statsResponse  `json:"stats"`
	Fetching      bool           `json:"fetching"`
	Error         string         `json:"error,omitempty"`
	LastUpdatedAt *time.Time     `json:"lastUpdatedAt,omitempty"`
}

type cycleStatsResponse struct {
	CycleAt              time.Time `json:"cycleAt"`
	Mode                 string    `json:"mode"`
	TotalUsers           int       `json:"totalUsers"`
	UsersWithLocation    int       `json:"usersWithLocation"`
	UniqueLocationGroups int       `json:"uniqueLocationGroups"`
}

func locationToResponse(location *domain.Location) *locationResponse {
	if location == nil {
		return nil
	}
	return &locationResponse{
		Latitude:   location.Latitude,
		Longitude:  location.Longitude,
		Confidence: location.Confidence,
		Method:     location.Method,
		Country:    location.Country,
	}
}

func userToResponse(user domain.UserRecord) userResponse {
	return userResponse{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		About:        user.About,
		PictureURL:   user.PictureURL,
		Location:     locationToResponse(user.Location),
		ActivityType: string(user.ActivityType),
		LastSeen:     user.LastSeen,
	}
}

func snapshotToResponse(snapshot livemap.Snapshot) snapshotResponse {
	users := make([]userResponse, 0, len(snapshot.Users))
	for _, user := range snapshot.Users {
		users = append(users, userToResponse(user))
	}
	// Stable ordering for clients and tests
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	response := snapshotResponse{
		Users: users,
		Stats: statsResponse{
			TotalUsers:           snapshot.Stats.TotalUsers,
			UsersWithLocation:    snapshot.Stats.UsersWithLocation,
			UniqueLocationGroups: snapshot.Stats.UniqueLocationGroups,
		},
		Fetching: snapshot.Fetching,
		Error:    snapshot.Error,
	}
	if !snapshot.LastUpdatedAt.IsZero() {
		lastUpdatedAt := snapshot.LastUpdatedAt
		response.LastUpdatedAt = &lastUpdatedAt
	}
	return response
}

func cycleStatsToResponse(stats []domain.CycleStats) []cycleStatsResponse {
	out := make([]cycleStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, cycleStatsResponse{
			CycleAt:              s.CycleAt,
			Mode:                 s.Mode,
			TotalUsers:           s.TotalUsers,
			UsersWithLocation:    s.UsersWithLocation,
			UniqueLocationGroups: s.UniqueLocationGroups,
		})
	}
	return out
}
