package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// ProfileService reads and writes the vision and mission texts.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

// Get returns the profile. A missing row reads as an empty profile.
func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	p, err := s.repomanager.Profile(s.db).Get(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return &models.Profile{}, nil
	}
	return p, err
}

func (s *ProfileService) Update(ctx context.Context, vision, mission string) (*models.Profile, error) {
	return s.repomanager.Profile(s.db).Update(ctx, strings.TrimSpace(vision), strings.TrimSpace(mission))
}
