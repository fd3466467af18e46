package userdir

import "time"

const (
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// User is the locally persisted directory record for an upstream
// identity. The phone number is the identity key; everything else about
// the person lives in the identity upstream.
type User struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Markets   []Market  `json:"markets"`
	CreatedAt time.Time `json:"created_at"`
}

// Market is one work location assigned to a worker.
type Market struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Location    Location `json:"location"`
	GeoAccuracy float64  `json:"geoAccuracy,omitempty"`
	Type        string   `json:"type,omitempty"`
	WorkHours   string   `json:"workHours,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
