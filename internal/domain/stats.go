package domain

import "time"

// Stats are derived from a store snapshot on every cycle and never stored.
type Stats struct {
	TotalUsers           int
	UsersWithLocation    int
	UniqueLocationGroups int
}

// CycleStats is one persisted row of per-cycle statistics history.
type CycleStats struct {
	CycleAt              time.Time
	Mode                 string
	TotalUsers           int
	UsersWithLocation    int
	UniqueLocationGroups int
}
