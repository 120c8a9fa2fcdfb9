// Package imaging turns an uploaded raster image into a WebP asset stored
// under a fresh key in object storage.
//
// A run is strictly sequential: decode, raster, encode, upload and, when an
// earlier asset is being replaced, a best-effort delete of that asset.
// Nothing is resized. Nothing is retried.
package imaging

import "fmt"

// Collection is the kind of record an image belongs to. It selects the
// storage folder.
type Collection string

const (
	CollectionActivities Collection = "activities"
	CollectionPrograms   Collection = "programs"
	CollectionMembers    Collection = "members"
)

// Folder returns the storage folder for the collection.
func (c Collection) Folder() string { return string(c) }

func (c Collection) Valid() bool {
	switch c {
	case CollectionActivities, CollectionPrograms, CollectionMembers:
		return true
	}
	return false
}

// Stage is a step of a pipeline run.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageDecoding         Stage = "decoding"
	StageRastering        Stage = "rastering"
	StageEncoding         Stage = "encoding"
	StageUploading        Stage = "uploading"
	StageDeletingPrevious Stage = "deleting previous"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// Source is a file picked in an editor.
type Source struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Asset is a stored, normalised image.
type Asset struct {
	Key         string
	URL         string
	ContentType string
	Width       int
	Height      int
	Size        int
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s (%dx%d, %d bytes)", a.Key, a.Width, a.Height, a.Size)
}
