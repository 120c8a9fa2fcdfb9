package programs

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

func (r *PostgresRepository) List(ctx context.Context) ([]models.Program, error) {
	query := `
		SELECT id, title, description, content, image_url, image_key, created_at
		FROM programs
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Program
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Content, &p.ImageURL, &p.ImageKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Program, error) {
	query := `
		SELECT id, title, description, content, image_url, image_key, created_at
		FROM programs
		WHERE id = $1
	`
	p := &models.Program{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Content, &p.ImageURL, &p.ImageKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Program) (*models.Program, error) {
	query := `
		INSERT INTO programs (title, description, content, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.Title, p.Description, p.Content, p.ImageURL, p.ImageKey).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Program) error {
	query := `
		UPDATE programs
		SET title = $1, description = $2, content = $3, image_url = $4, image_key = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, p.Title, p.Description, p.Content, p.ImageURL, p.ImageKey, p.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (string, error) {
	query := `
		DELETE FROM programs
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM programs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
