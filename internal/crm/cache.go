package crm

import (
	"encoding/json"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	sourcesCacheKey           = "marketing-sources"
	sourcesCacheExpireSeconds = 300
)

// SourcesCache keeps the marketing source list around for a few minutes,
// it changes rarely but is read by every client form.
type SourcesCache struct {
	cache *freecache.Cache
}

func NewSourcesCache() *SourcesCache {
	megabyte := 1024 * 1024
	return &SourcesCache{
		cache: freecache.NewCache(megabyte),
	}
}

func (c *SourcesCache) Get() ([]MarketingSource, bool) {
	sourcesBytes, err := c.cache.Get([]byte(sourcesCacheKey))
	if err != nil {
		// freecache returns an error for a plain miss too
		return nil, false
	}

	var sources []MarketingSource
	if err := json.Unmarshal(sourcesBytes, &sources); err != nil {
		log.Errorf("sources cache: unmarshal cached sources: %s", err)
		c.Invalidate()
		return nil, false
	}
	return sources, true
}

func (c *SourcesCache) Set(sources []MarketingSource) {
	sourcesBytes, err := json.Marshal(sources)
	if err != nil {
		log.Errorf("sources cache: marshal sources: %s", err)
		return
	}
	if err := c.cache.Set([]byte(sourcesCacheKey), sourcesBytes, sourcesCacheExpireSeconds); err != nil {
		log.Errorf("sources cache: set sources: %s", err)
	}
}

func (c *SourcesCache) Invalidate() {
	c.cache.Del([]byte(sourcesCacheKey))
}
