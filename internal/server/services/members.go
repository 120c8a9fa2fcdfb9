package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// MemberInput is the editable part of a member.
type MemberInput struct {
	Name     string
	Position string
	Role     models.MemberRole
}

func (in *MemberInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if _, err := models.ParseMemberRole(string(in.Role)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

// MemberService manages the council structure.
type MemberService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	assets
}

func NewMemberService(db *sql.DB, m repomanager.RepositoryManager, pipeline imaging.Normalizer,
	store objectstore.Store, logger logging.Logger) *MemberService {
	return &MemberService{
		db:          db,
		repomanager: m,
		assets:      assets{pipeline: pipeline, store: store, logger: logger},
	}
}

// List returns members grouped by role, advisors first.
func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return s.repomanager.Members(s.db).List(ctx)
}

func (s *MemberService) Get(ctx context.Context, id int64) (*models.Member, error) {
	return s.repomanager.Members(s.db).Get(ctx, id)
}

// Create stores upload, when given, and then the member.
func (s *MemberService) Create(ctx context.Context, in MemberInput, upload *Upload) (*models.Member, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := &models.Member{Name: in.Name, Position: in.Position, Role: in.Role}

	var asset *imaging.Asset
	if upload != nil {
		var err error
		if asset, err = s.replace(ctx, upload, imaging.CollectionMembers, ""); err != nil {
			return nil, err
		}
		m.ImageURL, m.ImageKey = asset.URL, asset.Key
	}

	created, err := s.repomanager.Members(s.db).Create(ctx, m)
	if err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return created, nil
}

// Update overwrites the member's fields. A new upload replaces the current
// image, which is removed from storage.
func (s *MemberService) Update(ctx context.Context, id int64, in MemberInput, upload *Upload) (*models.Member, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	repo := s.repomanager.Members(s.db)
	m, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Name, m.Position, m.Role = in.Name, in.Position, in.Role

	var asset *imaging.Asset
	if upload != nil {
		if asset, err = s.replace(ctx, upload, imaging.CollectionMembers, m.ImageKey); err != nil {
			return nil, err
		}
		m.ImageURL, m.ImageKey = asset.URL, asset.Key
	}

	if err := repo.Update(ctx, m); err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return m, nil
}

// Delete removes the member and then, best effort, its image.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	key, err := s.repomanager.Members(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	s.remove(ctx, key)
	return nil
}
