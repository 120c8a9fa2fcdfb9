package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/activities"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// ActivityInput is the editable part of an activity.
type ActivityInput struct {
	Title       string
	Date        time.Time
	Category    models.ActivityCategory
	Description string
	Content     string
}

func (in *ActivityInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", common.ErrorValidation)
	}
	c, err := models.ParseActivityCategory(string(in.Category))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	in.Category = c
	return nil
}

type ActivityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	assets
}

func NewActivityService(db *sql.DB, m repomanager.RepositoryManager, pipeline imaging.Normalizer,
	store objectstore.Store, logger logging.Logger) *ActivityService {
	return &ActivityService{
		db:          db,
		repomanager: m,
		assets:      assets{pipeline: pipeline, store: store, logger: logger},
	}
}

// List returns activities whose title contains query (any case), most
// recent date first. An empty query returns all of them.
func (s *ActivityService) List(ctx context.Context, query string) ([]models.Activity, error) {
	return s.repomanager.Activities(s.db).List(ctx, activities.Filter{Query: strings.TrimSpace(query)})
}

// Latest returns the n most recent activities.
func (s *ActivityService) Latest(ctx context.Context, n int) ([]models.Activity, error) {
	return s.repomanager.Activities(s.db).List(ctx, activities.Filter{Limit: n})
}

func (s *ActivityService) Get(ctx context.Context, id int64) (*models.Activity, error) {
	return s.repomanager.Activities(s.db).Get(ctx, id)
}

func (s *ActivityService) Create(ctx context.Context, in ActivityInput, upload *Upload) (*models.Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &models.Activity{
		Title:       in.Title,
		Date:        in.Date,
		Category:    in.Category,
		Description: in.Description,
		Content:     in.Content,
	}

	var asset *imaging.Asset
	if upload != nil {
		var err error
		if asset, err = s.replace(ctx, upload, imaging.CollectionActivities, ""); err != nil {
			return nil, err
		}
		a.ImageURL, a.ImageKey = asset.URL, asset.Key
	}

	created, err := s.repomanager.Activities(s.db).Create(ctx, a)
	if err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return created, nil
}

func (s *ActivityService) Update(ctx context.Context, id int64, in ActivityInput, upload *Upload) (*models.Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	repo := s.repomanager.Activities(s.db)
	a, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title, a.Date, a.Category = in.Title, in.Date, in.Category
	a.Description, a.Content = in.Description, in.Content

	var asset *imaging.Asset
	if upload != nil {
		if asset, err = s.replace(ctx, upload, imaging.CollectionActivities, a.ImageKey); err != nil {
			return nil, err
		}
		a.ImageURL, a.ImageKey = asset.URL, asset.Key
	}

	if err := repo.Update(ctx, a); err != nil {
		if asset != nil {
			s.orphaned(ctx, asset, err)
		}
		return nil, err
	}
	return a, nil
}

func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	key, err := s.repomanager.Activities(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	s.remove(ctx, key)
	return nil
}
