package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/google/uuid"
)

// DefaultUploadTimeout bounds a single upload when none is configured.
const DefaultUploadTimeout = 30 * time.Second

// Normalizer is what editors depend on.
type Normalizer interface {
	NormalizeAndStore(ctx context.Context, src Source, collection Collection, previousKey string) (*Asset, error)
}

// Pipeline implements Normalizer on top of an objectstore.Store.
type Pipeline struct {
	store         objectstore.Store
	logger        logging.Logger
	uploadTimeout time.Duration

	encode Encoder
	newKey func(Collection) string

	// OnStage, when set, is called on every stage transition of every run.
	OnStage func(Stage)
}

// NewPipeline returns a pipeline that encodes with EncodeWebP and names
// assets with random UUIDs. A non-positive uploadTimeout means
// DefaultUploadTimeout.
func NewPipeline(store objectstore.Store, logger logging.Logger, uploadTimeout time.Duration) *Pipeline {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	return &Pipeline{
		store:         store,
		logger:        logger,
		uploadTimeout: uploadTimeout,
		encode:        EncodeWebP,
		newKey:        NewKey,
	}
}

// NewKey returns "<folder>/<uuid v4>.webp".
func NewKey(c Collection) string {
	return c.Folder() + "/" + uuid.NewString() + Extension
}

// NormalizeAndStore decodes src, re-encodes it as WebP and stores it under
// a new key in collection's folder. When previousKey is non-empty and the
// upload succeeded, the previous asset is deleted; a failed delete is only
// logged.
//
// Decode and encode failures happen before any storage call. Calling twice
// with the same source stores two assets.
func (p *Pipeline) NormalizeAndStore(ctx context.Context, src Source, collection Collection, previousKey string) (*Asset, error) {
	p.enter(StageIdle)
	if !collection.Valid() {
		return nil, p.fail(ctx, ErrUnknownCollection, StageIdle, fmt.Errorf("collection %q", collection))
	}

	p.enter(StageDecoding)
	img, format, err := decode(src.Data)
	if err != nil {
		return nil, p.fail(ctx, ErrDecode, StageDecoding, err)
	}

	p.enter(StageRastering)
	surface := raster(img)

	p.enter(StageEncoding)
	var buf bytes.Buffer
	if err := p.encode(&buf, surface); err != nil {
		return nil, p.fail(ctx, ErrEncode, StageEncoding, err)
	}
	if buf.Len() == 0 {
		return nil, p.fail(ctx, ErrEncode, StageEncoding, errors.New("encoder produced no bytes"))
	}

	key := p.newKey(collection)

	p.enter(StageUploading)
	if err := p.upload(ctx, key, buf.Bytes()); err != nil {
		return nil, err
	}

	if previousKey != "" && previousKey != key {
		p.enter(StageDeletingPrevious)
		p.deletePrevious(ctx, previousKey)
	}

	p.enter(StageDone)

	asset := &Asset{
		Key:         key,
		URL:         p.store.URL(key),
		ContentType: ContentType,
		Width:       surface.Rect.Dx(),
		Height:      surface.Rect.Dy(),
		Size:        buf.Len(),
	}
	p.logger.Info(ctx, "asset stored",
		"key", asset.Key, "source_format", format, "source_bytes", len(src.Data), "bytes", asset.Size,
		"width", asset.Width, "height", asset.Height)
	return asset, nil
}

func (p *Pipeline) upload(ctx context.Context, key string, body []byte) error {
	uctx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()

	err := p.store.Put(uctx, key, ContentType, body)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, objectstore.ErrObjectExists):
		return p.fail(ctx, ErrUploadConflict, StageUploading, err)
	case errors.Is(uctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return p.fail(ctx, ErrStorageTransport, StageUploading,
			fmt.Errorf("upload timed out after %s: %w", p.uploadTimeout, err))
	default:
		return p.fail(ctx, ErrStorageTransport, StageUploading, err)
	}
}

func (p *Pipeline) deletePrevious(ctx context.Context, key string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.uploadTimeout)
	defer cancel()

	if err := p.store.Delete(dctx, key); err != nil {
		warning := &Error{Kind: ErrCleanup, Stage: StageDeletingPrevious, Err: err}
		p.logger.Warn(ctx, "previous asset kept", "key", key, "error", warning.Error())
	}
}

func (p *Pipeline) enter(s Stage) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

func (p *Pipeline) fail(ctx context.Context, kind error, stage Stage, err error) error {
	p.enter(StageFailed)
	e := &Error{Kind: kind, Stage: stage, Err: err}
	p.logger.Warn(ctx, "image pipeline failed", "stage", string(stage), "error", e.Error())
	return e
}
