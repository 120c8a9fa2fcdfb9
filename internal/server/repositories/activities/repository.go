// Package activities persists council activities ("kegiatan").
package activities

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

// Filter narrows List. A zero Filter returns every activity.
type Filter struct {
	// Query matches titles case-insensitively.
	Query string
	// Limit caps the number of rows; zero means no cap.
	Limit int
}

type Repository interface {
	// List returns activities ordered by date, most recent first.
	List(ctx context.Context, f Filter) ([]models.Activity, error)
	Get(ctx context.Context, id int64) (*models.Activity, error)
	Create(ctx context.Context, a *models.Activity) (*models.Activity, error)
	Update(ctx context.Context, a *models.Activity) error
	// Delete removes the activity and returns the storage key of its image.
	Delete(ctx context.Context, id int64) (string, error)
	Count(ctx context.Context) (int, error)
}
