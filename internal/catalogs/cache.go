// SPDX-License-Identifier: MPL-2.0

package catalogs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

// DefaultModelCacheSize bounds the number of cached models. It is far above
// the number of catalogs a workspace declares, so nothing is evicted in a
// single invocation.
const DefaultModelCacheSize = 1024

type (
	// ModelCache keeps built catalog models for one invocation, keyed by
	// (catalog source, registered name). Builds that see the same catalog
	// share its model. Failed builds are not cached.
	ModelCache struct {
		models *lru.Cache[modelKey, *catalog.Model]
		builds int
	}

	modelKey struct {
		source sourceKey
		name   catalog.Name
	}

	// sourceKey identifies where a definition comes from: a catalog file
	// path or a settings builder.
	sourceKey struct {
		path    string
		builder *settings.CatalogBuilder
	}
)

// NewModelCache returns a cache holding up to size models.
func NewModelCache(size int) (*ModelCache, error) {
	models, err := lru.New[modelKey, *catalog.Model](size)
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	return &ModelCache{models: models}, nil
}

// model returns the cached model for key, calling build on a miss.
func (c *ModelCache) model(key modelKey, build func() (*catalog.Model, error)) (*catalog.Model, error) {
	if m, ok := c.models.Get(key); ok {
		return m, nil
	}
	m, err := build()
	if err != nil {
		return nil, err
	}
	c.builds++
	c.models.Add(key, m)
	return m, nil
}

// Builds returns how many models were built (cache misses that succeeded).
func (c *ModelCache) Builds() int { return c.builds }

// Len returns the number of cached models.
func (c *ModelCache) Len() int { return c.models.Len() }
