package activities

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

// List runs a single statement for every filter shape; an empty query and a
// zero limit are neutralised in SQL (LIMIT NULL means no limit).
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]models.Activity, error) {
	query := `
		SELECT id, title, date, category, description, content, image_url, image_key, created_at
		FROM activities
		WHERE $1 = '' OR title ILIKE '%' || $1 || '%'
		ORDER BY date DESC, id DESC
		LIMIT NULLIF($2, 0)
	`
	rows, err := r.db.QueryContext(ctx, query, f.Query, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.Date, &a.Category, &a.Description, &a.Content, &a.ImageURL, &a.ImageKey, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Activity, error) {
	query := `
		SELECT id, title, date, category, description, content, image_url, image_key, created_at
		FROM activities
		WHERE id = $1
	`
	a := &models.Activity{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.Title, &a.Date, &a.Category, &a.Description, &a.Content, &a.ImageURL, &a.ImageKey, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	query := `
		INSERT INTO activities (title, date, category, description, content, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.Title, a.Date, string(a.Category), a.Description, a.Content, a.ImageURL, a.ImageKey).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Activity) error {
	query := `
		UPDATE activities
		SET title = $1, date = $2, category = $3, description = $4, content = $5, image_url = $6, image_key = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		a.Title, a.Date, string(a.Category), a.Description, a.Content, a.ImageURL, a.ImageKey, a.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (string, error) {
	query := `
		DELETE FROM activities
		WHERE id = $1
		RETURNING image_key
	`
	var key string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
