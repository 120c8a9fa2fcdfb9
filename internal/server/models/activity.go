package models

import (
	"fmt"
	"time"
)

// ActivityCategory groups activities on the public list.
type ActivityCategory string

const (
	CategoryEvent  ActivityCategory = "Event"
	CategoryLomba  ActivityCategory = "Lomba"
	CategoryRapat  ActivityCategory = "Rapat"
	CategorySosial ActivityCategory = "Sosial"
)

// ActivityCategories lists categories in the order editors see them.
var ActivityCategories = []ActivityCategory{CategoryEvent, CategoryLomba, CategoryRapat, CategorySosial}

// ParseActivityCategory validates a category; empty input means CategoryEvent.
func ParseActivityCategory(s string) (ActivityCategory, error) {
	if s == "" {
		return CategoryEvent, nil
	}
	for _, c := range ActivityCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown activity category %q", s)
}

// Activity is a past or upcoming council event ("kegiatan").
type Activity struct {
	ID          int64
	Title       string
	Date        time.Time
	Category    ActivityCategory
	Description string
	Content     string
	ImageURL    string
	ImageKey    string
	CreatedAt   time.Time
}
