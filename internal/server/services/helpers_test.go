package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repotest"
)

// flakyStore is a MemoryStore whose deletes can be made to fail.
type flakyStore struct {
	*objectstore.MemoryStore
	deleteErr error
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

type normalizeCall struct {
	src         imaging.Source
	collection  imaging.Collection
	previousKey string
}

// fakeNormalizer stores the raw bytes under a predictable key and removes
// the previous key the way the real pipeline does.
type fakeNormalizer struct {
	store *flakyStore
	calls []normalizeCall
	err   error
	n     int
}

func (f *fakeNormalizer) NormalizeAndStore(ctx context.Context, src imaging.Source, c imaging.Collection, previousKey string) (*imaging.Asset, error) {
	f.calls = append(f.calls, normalizeCall{src, c, previousKey})
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	key := c.Folder() + "/" + strings.Repeat("a", f.n) + ".webp"
	if err := f.store.Put(ctx, key, imaging.ContentType, src.Data); err != nil {
		return nil, err
	}
	if previousKey != "" {
		_ = f.store.Delete(ctx, previousKey)
	}
	return &imaging.Asset{Key: key, URL: f.store.URL(key), ContentType: imaging.ContentType}, nil
}

type fixture struct {
	rm    *repotest.Manager
	store *flakyStore
	norm  *fakeNormalizer
	log   *logging.Recorder
}

func newFixture() *fixture {
	store := &flakyStore{MemoryStore: objectstore.NewMemoryStore("http://assets.local")}
	return &fixture{
		rm:    repotest.NewManager(),
		store: store,
		norm:  &fakeNormalizer{store: store},
		log:   &logging.Recorder{},
	}
}

func upload(data string) *Upload {
	return &Upload{Data: []byte(data), ContentType: "image/jpeg", Filename: "foto.jpg"}
}
