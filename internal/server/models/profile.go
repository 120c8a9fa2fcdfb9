package models

import "time"

// Profile holds the organisation's vision and mission texts. There is a
// single row.
type Profile struct {
	Vision    string
	Mission   string
	UpdatedAt time.Time
}
