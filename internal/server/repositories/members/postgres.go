package members

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

func (r *PostgresRepository) List(ctx context.Context) ([]models.Member, error) {
	query := `
		SELECT id, name, position, role, image_url, image_key, created_at
		FROM members
		ORDER BY CASE role WHEN 'advisor' THEN 0 WHEN 'officer' THEN 1 ELSE 2 END, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.Role, &m.ImageURL, &m.ImageKey, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, name, position, role, image_url, image_key, created_at
		FROM members
		WHERE id = $1
	`
	m := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Name, &m.Position, &m.Role, &m.ImageURL, &m.ImageKey, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Member) (*models.Member, error) {
	query := `
		INSERT INTO members (name, position, role, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, m.Name, m.Position, string(m.Role), m.ImageURL, m.ImageKey).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return m, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members
		SET name = $1, position = $2, role = $3, image_url = $4, image_key = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, m.Name, m.Position, string(m.Role), m.ImageURL, m.ImageKey, m.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (string, error) {
	query := `
		DELETE FROM members
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
