// Package members persists the council structure.
package members

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

type Repository interface {
	// List returns members grouped by role (advisors first) and then by ID.
	List(ctx context.Context) ([]models.Member, error)
	Get(ctx context.Context, id int64) (*models.Member, error)
	Create(ctx context.Context, m *models.Member) (*models.Member, error)
	Update(ctx context.Context, m *models.Member) error
	// Delete removes the member and returns the storage key of its image.
	Delete(ctx context.Context, id int64) (string, error)
	Count(ctx context.Context) (int, error)
}
