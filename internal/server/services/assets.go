package services

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
)

// Upload is an image attached to an editor form. A nil *Upload means the
// form kept the current image.
type Upload = imaging.Source

// assets stores and removes the images that belong to records.
type assets struct {
	pipeline imaging.Normalizer
	store    objectstore.Store
	logger   logging.Logger
}

// replace runs the image pipeline for upload. previousKey is removed by the
// pipeline once the new asset is stored.
func (a *assets) replace(ctx context.Context, upload *Upload, collection imaging.Collection, previousKey string) (*imaging.Asset, error) {
	return a.pipeline.NormalizeAndStore(ctx, *upload, collection, previousKey)
}

// remove deletes key on a best-effort basis.
func (a *assets) remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.Warn(ctx, "asset not removed", "key", key, "error", err.Error())
	}
}

// orphaned records an asset whose owning record was never saved.
func (a *assets) orphaned(ctx context.Context, asset *imaging.Asset, err error) {
	a.logger.Warn(ctx, "asset orphaned", "key", asset.Key, "error", err.Error())
}
