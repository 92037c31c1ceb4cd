package engine

import (
	"context"
	"sync"

	"github.com/grapholex/grapholex/internal/model"
)

// MemoryCache is an in-process feature cache. The first vector stored for
// an (image, calibration) pair wins; later writes are ignored.
type MemoryCache struct {
	entries sync.Map
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

type cacheKey struct {
	imageID       string
	calibrationID string
}

// GetFeatures returns the vector stored for the pair.
func (c *MemoryCache) GetFeatures(_ context.Context, imageID, calibrationID string) (*model.FeatureVector, bool, error) {
	v, ok := c.entries.Load(cacheKey{imageID, calibrationID})
	if !ok {
		return nil, false, nil
	}
	return v.(*model.FeatureVector), true, nil //nolint:forcetypeassert // only vectors are stored
}

// PutFeatures stores fv unless a vector already exists for its pair.
func (c *MemoryCache) PutFeatures(_ context.Context, fv *model.FeatureVector) error {
	c.entries.LoadOrStore(cacheKey{fv.ImageID, fv.CalibrationID}, fv)
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
