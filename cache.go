package xsd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agentflare-ai/go-xmldom"
	"github.com/golang/groupcache"
	"golang.org/x/sync/singleflight"
)

// ResourceHandle is a fetched schema document plus the location it was
// fetched from, used as the base URL for any relative include/import/
// redefine/override location inside it.
type ResourceHandle struct {
	Location string
	Doc      xmldom.Document
}

// ResourceFetcher retrieves and parses an XSD document by location,
// resolved against an optional base URL.
type ResourceFetcher interface {
	Fetch(location, baseURL string) (*ResourceHandle, error)
}

// FileResourceFetcher resolves locations as filesystem paths, relative to
// baseURL when given.
type FileResourceFetcher struct{}

func (FileResourceFetcher) Fetch(location, baseURL string) (*ResourceHandle, error) {
	path := resolveLocation(location, baseURL)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{Location: location, BaseURL: baseURL, Err: err}
	}
	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return nil, &FetchError{Location: location, BaseURL: baseURL, Err: err}
	}
	return &ResourceHandle{Location: path, Doc: doc}, nil
}

func resolveLocation(location, baseURL string) string {
	if filepath.IsAbs(location) {
		return location
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	if baseURL != "" {
		return filepath.Join(filepath.Dir(baseURL), location)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return location
	}
	return abs
}

// cacheGroupSeq gives each peer-sharing CachingResourceFetcher its own
// groupcache group name: groupcache panics on a second registration under
// the same name, and a process may build more than one schema closure
// (every LoadSchemaDocument call constructs a fresh Globals/fetcher pair).
var cacheGroupSeq atomic.Uint64

// CachingResourceFetcher wraps a ResourceFetcher with a singleflight group
// (dedup of concurrent in-flight fetches for the same key) and an
// in-process cache, and optionally registers a groupcache peer pool and
// group. Fetch never queries that group: it reads only the in-process
// cache and the inner fetcher, and the group's getter answers peers with
// the resolved location of a document this process already fetched, not
// the document itself.
// This replaces the teacher's sync.Once-keyed SchemaCache with the pack's
// request-collapsing/caching libraries.
type CachingResourceFetcher struct {
	inner   ResourceFetcher
	group   singleflight.Group
	mu      sync.RWMutex
	handles map[string]*ResourceHandle
	peers   *groupcache.HTTPPool
	locPool *groupcache.Group
}

// NewCachingResourceFetcher wraps inner with request-collapsing and an
// in-process cache. peerSelf, when non-empty, also registers a groupcache
// HTTP pool and a peer-queryable group that serves resolved locations of
// locally fetched documents (fetched documents are not shared between
// processes); pass "" to run single-process (the common case for a CLI),
// which skips groupcache registration entirely.
func NewCachingResourceFetcher(inner ResourceFetcher, peerSelf string) *CachingResourceFetcher {
	c := &CachingResourceFetcher{inner: inner, handles: make(map[string]*ResourceHandle)}
	if peerSelf == "" {
		return c
	}
	c.peers = groupcache.NewHTTPPool(peerSelf)
	groupName := fmt.Sprintf("xsd-resources-%d", cacheGroupSeq.Add(1))
	c.locPool = groupcache.NewGroup(groupName, 64<<20, groupcache.GetterFunc(
		func(ctx groupcache.Context, key string, dest groupcache.Sink) error {
			c.mu.RLock()
			h, ok := c.handles[key]
			c.mu.RUnlock()
			if !ok {
				return fmt.Errorf("resource %q not fetched on this peer", key)
			}
			return dest.SetString(h.Location)
		}))
	return c
}

func (c *CachingResourceFetcher) Fetch(location, baseURL string) (*ResourceHandle, error) {
	key := resolveLocation(location, baseURL)

	c.mu.RLock()
	h, ok := c.handles[key]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.inner.Fetch(location, baseURL)
	})
	if err != nil {
		return nil, err
	}
	handle := v.(*ResourceHandle)

	c.mu.Lock()
	c.handles[key] = handle
	c.mu.Unlock()
	return handle, nil
}
