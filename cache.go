package forumfront

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/forumfront/api"
)

// PostSource is where the cache loads posts from.
type PostSource interface {
	ListPosts(ctx context.Context) ([]api.Post, error)
	GetPost(ctx context.Context, id api.ID) (api.Post, error)
}

type cachedPost struct {
	post    api.Post
	fetched time.Time
}

// PostCache is an in-memory TTL cache of backend posts. Concurrent misses
// for the same key share one backend call.
type PostCache struct {
	mu      sync.RWMutex
	posts   []api.Post
	fetched time.Time
	byID    map[api.ID]cachedPost
	gen     uint64
	ttl     time.Duration
	src     PostSource
	group   singleflight.Group
}

// NewPostCache creates a PostCache backed by src.
func NewPostCache(src PostSource, ttl time.Duration) *PostCache {
	return &PostCache{src: src, ttl: ttl, byID: make(map[api.ID]cachedPost)}
}

func (c *PostCache) fresh(t time.Time) bool {
	return time.Since(t) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
// Loads already in flight are not stored.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.byID = make(map[api.ID]cachedPost)
	c.gen++
	c.mu.Unlock()
}

func (c *PostCache) list(ctx context.Context) ([]api.Post, error) {
	c.mu.RLock()
	if c.posts != nil && c.fresh(c.fetched) {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.group.Do("list", func() (any, error) {
		posts, err := c.src.ListPosts(ctx)
		if err != nil {
			return nil, err
		}
		if posts == nil {
			posts = []api.Post{}
		}
		c.mu.Lock()
		if c.gen == gen {
			c.posts = posts
			c.fetched = time.Now()
		}
		c.mu.Unlock()
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.Post), nil
}

// ListPosts returns posts, optionally filtered by category.
func (c *PostCache) ListPosts(ctx context.Context, category string) ([]api.Post, error) {
	posts, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return posts, nil
	}
	normalized := normalizeCategory(category)
	var filtered []api.Post
	for _, p := range posts {
		if normalizeCategory(p.Category) == normalized {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Categories returns the distinct non-empty categories, sorted.
func (c *PostCache) Categories(ctx context.Context) ([]string, error) {
	posts, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, p := range posts {
		if cat := normalizeCategory(p.Category); cat != "" {
			set[cat] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for cat := range set {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out, nil
}

// GetPost returns a single post with its sections.
func (c *PostCache) GetPost(ctx context.Context, id api.ID) (api.Post, error) {
	c.mu.RLock()
	if e, ok := c.byID[id]; ok && c.fresh(e.fetched) {
		c.mu.RUnlock()
		return e.post, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.group.Do("post:"+id.String(), func() (any, error) {
		p, err := c.src.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.byID[id] = cachedPost{post: p, fetched: time.Now()}
		}
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return api.Post{}, err
	}
	return v.(api.Post), nil
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
