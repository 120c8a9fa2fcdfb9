// Package programs persists work programs ("program kerja").
package programs

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

type Repository interface {
	// List returns programs newest first.
	List(ctx context.Context) ([]models.Program, error)
	Get(ctx context.Context, id int64) (*models.Program, error)
	Create(ctx context.Context, p *models.Program) (*models.Program, error)
	Update(ctx context.Context, p *models.Program) error
	// Delete removes the program and returns the storage key of its image.
	Delete(ctx context.Context, id int64) (string, error)
	Count(ctx context.Context) (int, error)
}
