package models

import "time"

// Program is a work program of the council ("program kerja").
type Program struct {
	ID          int64
	Title       string
	Description string
	Content     string
	ImageURL    string
	ImageKey    string
	CreatedAt   time.Time
}
