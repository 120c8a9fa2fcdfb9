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

// ProgramInput is the editable part of a program.
type ProgramInput struct {
	Title       string
	Description string
	Content     string
}

func (in *ProgramInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	return nil
}

type ProgramService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	assets
}

func NewProgramService(db *sql.DB, m repomanager.RepositoryManager, pipeline imaging.Normalizer,
	store objectstore.Store, logger logging.Logger) *ProgramService {
	return &ProgramService{
		db:          db,
		repomanager: m,
		assets:      assets{pipeline: pipeline, store: store, logger: logger},
	}
}

// List returns programs newest first.
func (s *ProgramService) List(ctx context.Context) ([]models.Program, error) {
	return s.repomanager.Programs(s.db).List(ctx)
}

func (s *ProgramService) Get(ctx context.Context, id int64) (*models.Program, error) {
	return s.repomanager.Programs(s.db).Get(ctx, id)
}

func (s *ProgramService) Create(ctx context.Context, in ProgramInput, upload *Upload) (*models.Program, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Program{Title: in.Title, Description: in.Description, Content: in.Content}

	var asset *imaging.Asset
	if upload != nil {
		var err error
		if asset, err = s.replace(ctx, upload, imaging.CollectionPrograms, ""); err != nil {
			return nil, err
		}
		p.ImageURL, p.ImageKey = asset.URL, asset.Key
	}

	created, err := s.repomanager.Programs(s.db).Create(ctx, p)
	if err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return created, nil
}

func (s *ProgramService) Update(ctx context.Context, id int64, in ProgramInput, upload *Upload) (*models.Program, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	repo := s.repomanager.Programs(s.db)
	p, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title, p.Description, p.Content = in.Title, in.Description, in.Content

	var asset *imaging.Asset
	if upload != nil {
		if asset, err = s.replace(ctx, upload, imaging.CollectionPrograms, p.ImageKey); err != nil {
			return nil, err
		}
		p.ImageURL, p.ImageKey = asset.URL, asset.Key
	}

	if err := repo.Update(ctx, p); err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return p, nil
}

func (s *ProgramService) Delete(ctx context.Context, id int64) error {
	key, err := s.repomanager.Programs(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	s.remove(ctx, key)
	return nil
}
