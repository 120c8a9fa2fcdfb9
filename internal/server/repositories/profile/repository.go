// Package profile persists the council's vision and mission, a single row.
package profile

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context) (*models.Profile, error)
	Update(ctx context.Context, vision, mission string) (*models.Profile, error)
}
