package repo

import "time"

// Offer represents a row in the offers table.
type Offer struct {
	ID             int64
	Name           string
	Description    string
	Payout         float64
	Geo            string
	Vertical       string
	KPI            string
	Tracker        string
	Antifraud      string
	AppsFlyerAppID string
	EventName      string
	DailyLimit     int64
	CreatedAt      time.Time
}

// HasAttribution reports whether the offer carries the AppsFlyer identifiers
// analytics and reports require.
func (o Offer) HasAttribution() bool {
	return o.AppsFlyerAppID != "" && o.EventName != ""
}

// TrafficSource represents a row in the sources table.
type TrafficSource struct {
	ID          int64
	Name        string
	Conversion  float64
	Cost        float64
	Capacity    int64
	Geo         string
	Performance string
	CreatedAt   time.Time
}

// User represents a row in the users table.
type User struct {
	UserID    int64
	Username  string
	Role      string
	CreatedAt time.Time
}

// Roles stored in users.role.
const (
	RoleAdmin   = "admin"
	RolePartner = "partner"
)
