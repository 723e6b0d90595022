package browser

import (
	"fmt"
	"sync"

	"github.com/content-interop/cmis-go/cmis"
)

// repoURLs are the two durable base URLs of one repository: the repository
// operations URL and the object-root URL. They are always set together.
type repoURLs struct {
	repositoryURL string
	rootFolderURL string
}

// repositoryURLCache maps repository ids to their base URLs. Reads are
// concurrent; population and removal take the write lock. A miss never
// triggers I/O here; discovery is the binding's job.
type repositoryURLCache struct {
	mu      sync.RWMutex
	entries map[string]repoURLs
}

func newRepositoryURLCache() *repositoryURLCache {
	return &repositoryURLCache{entries: make(map[string]repoURLs)}
}

// put inserts both URLs atomically. Empty identifiers or URLs are rejected
// so the cache can never hold a partial entry.
func (c *repositoryURLCache) put(repositoryID, repositoryURL, rootFolderURL string) error {
	if repositoryID == "" || repositoryURL == "" || rootFolderURL == "" {
		return fmt.Errorf("repository url cache: id and both urls are required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[repositoryID] = repoURLs{
		repositoryURL: repositoryURL,
		rootFolderURL: rootFolderURL,
	}
	return nil
}

func (c *repositoryURLCache) remove(repositoryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, repositoryID)
}

// repositoryURL returns a builder on the repository-operations URL with the
// selector attached, or a miss.
func (c *repositoryURLCache) repositoryURL(repositoryID, selector string) (*urlBuilder, bool) {
	c.mu.RLock()
	e, ok := c.entries[repositoryID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	b := newURLBuilder(e.repositoryURL)
	if selector != "" {
		b.selector(selector)
	}
	return b, true
}

// objectURL returns a builder on the object-root URL addressing the object
// by id.
func (c *repositoryURLCache) objectURL(repositoryID, objectID, selector string) (*urlBuilder, bool) {
	c.mu.RLock()
	e, ok := c.entries[repositoryID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	b := newURLBuilder(e.rootFolderURL)
	b.addParam(cmis.ParamObjectID, objectID)
	if selector != "" {
		b.selector(selector)
	}
	return b, true
}

// pathURL returns a builder on the object-root URL addressing the object by
// repository path. Slashes in the path separate segments and stay literal.
func (c *repositoryURLCache) pathURL(repositoryID, path, selector string) (*urlBuilder, bool) {
	c.mu.RLock()
	e, ok := c.entries[repositoryID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	b := newURLBuilder(e.rootFolderURL)
	b.addPath(path)
	if selector != "" {
		b.selector(selector)
	}
	return b, true
}
