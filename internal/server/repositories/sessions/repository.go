// Package sessions persists signed-in administrator sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, expiresAt time.Time) (*models.Session, error)
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions whose expiry is not after now and
	// returns their IDs.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}
