package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/dbx"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.Profile, error) {
	query := `
		SELECT vision, mission, updated_at
		FROM profile
		WHERE id = 1
	`
	p := &models.Profile{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&p.Vision, &p.Mission, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Update writes both texts; the row is recreated if it was removed by hand.
func (r *PostgresRepository) Update(ctx context.Context, vision, mission string) (*models.Profile, error) {
	query := `
		INSERT INTO profile (id, vision, mission, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET vision = EXCLUDED.vision, mission = EXCLUDED.mission, updated_at = EXCLUDED.updated_at
		RETURNING vision, mission, updated_at
	`
	p := &models.Profile{}
	if err := r.db.QueryRowContext(ctx, query, vision, mission).Scan(&p.Vision, &p.Mission, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return p, nil
}
