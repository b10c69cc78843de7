// Package cache is the import cache spec section 4.2 describes: it
// memoizes canonicalize and load per URL so that two different @use
// statements resolving to the same file share one parsed module, and so
// neither step ever runs twice for the same canonical URL. The teacher's
// internal/cache.CacheSet plays the analogous "memoize expensive,
// repeatable work behind a map" role for parsed ASTs and file reads; this
// package generalizes that one level: canonicalize results and loaded
// contents are cached independently, each in a fixed-size LRU
// (defaultCacheSize entries). internal/compiler creates a fresh
// ImportCache for every compilation.
package cache

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/helpers"
	"github.com/sassgo/sassgo/internal/importer"
	"github.com/sassgo/sassgo/internal/logger"
)

// entrypointStringScheme prefixes the synthetic canonical URL minted for
// an in-memory entrypoint (RegisterEntrypointString), so SourceMapURL can
// recognize it later without threading an extra flag through the
// registry.
const entrypointStringScheme = "string://"

// ExternalURLProvider is implemented by importers that know how to render
// one of their own canonical URLs in the form a source map's "sources"
// entry should use (spec section 4.1 step 5's "importer's preferred
// external form", e.g. a project-relative file: URL). Importers that
// don't implement it fall back to the canonical URL verbatim.
type ExternalURLProvider interface {
	ExternalURL(canonical string) (string, bool)
}

const defaultCacheSize = 512

type canonicalizeResult struct {
	url string
	ok  bool
}

type loadResult struct {
	source *logger.Source
	ok     bool
}

// ImportCache mediates every canonicalize/load call an evaluation makes
// through a chain of Importers, enforcing the "canonicalize and load are
// each called at most once per canonical URL" invariant.
type ImportCache struct {
	importers []importer.Importer
	registry  *ast.SourceRegistry

	mutex          sync.Mutex
	canonicalCache *lru.Cache[string, canonicalizeResult]
	loadCache      *lru.Cache[string, loadResult]
}

func New(registry *ast.SourceRegistry, importers ...importer.Importer) *ImportCache {
	canon, _ := lru.New[string, canonicalizeResult](defaultCacheSize)
	load, _ := lru.New[string, loadResult](defaultCacheSize)
	return &ImportCache{
		importers:      importers,
		registry:       registry,
		canonicalCache: canon,
		loadCache:      load,
	}
}

// canonicalizeKey namespaces the cache by (baseURL, url) since the same
// relative URL can canonicalize differently depending on where it's
// written from.
func canonicalizeKey(url, baseURL string) string {
	return baseURL + "\x00" + url
}

// Canonicalize resolves url (written relative to baseURL) to a canonical
// URL, trying each configured importer in order and caching the winning
// result (or the fact that none matched) for this exact (url, baseURL)
// pair.
func (c *ImportCache) Canonicalize(url, baseURL string) (string, bool) {
	key := canonicalizeKey(url, baseURL)

	c.mutex.Lock()
	if cached, ok := c.canonicalCache.Get(key); ok {
		c.mutex.Unlock()
		return cached.url, cached.ok
	}
	c.mutex.Unlock()

	for _, imp := range c.importers {
		if canonical, ok := imp.Canonicalize(url, baseURL); ok {
			c.mutex.Lock()
			c.canonicalCache.Add(key, canonicalizeResult{url: canonical, ok: true})
			c.mutex.Unlock()
			return canonical, true
		}
	}

	c.mutex.Lock()
	c.canonicalCache.Add(key, canonicalizeResult{ok: false})
	c.mutex.Unlock()
	return "", false
}

// Load returns the registered Source for a canonical URL, loading it
// through whichever importer canonicalized it (found by asking each
// importer to Load it in turn -- the same order the original
// Canonicalize search used, since canonicalize and load are split across
// two calls but conceptually belong to the same importer) exactly once.
func (c *ImportCache) Load(canonical string) (*logger.Source, bool) {
	c.mutex.Lock()
	if cached, ok := c.loadCache.Get(canonical); ok {
		c.mutex.Unlock()
		return cached.source, cached.ok
	}
	c.mutex.Unlock()

	for _, imp := range c.importers {
		if contents, syntax, ok := imp.Load(canonical); ok {
			source := c.registry.Register(canonical, prettyURL(canonical), syntax, contents)
			c.mutex.Lock()
			c.loadCache.Add(canonical, loadResult{source: source, ok: true})
			c.mutex.Unlock()
			return source, true
		}
	}

	c.mutex.Lock()
	c.loadCache.Add(canonical, loadResult{ok: false})
	c.mutex.Unlock()
	return nil, false
}

// Resolve runs Canonicalize then Load as one step, the common case every
// @use/@forward/@import reference needs.
func (c *ImportCache) Resolve(url, baseURL string) (*logger.Source, bool) {
	canonical, ok := c.Canonicalize(url, baseURL)
	if !ok {
		return nil, false
	}
	return c.Load(canonical)
}

// RegisterEntrypointString registers source text passed directly (spec
// section 4.1's CompileString) under a synthetic canonical URL so it
// participates in the cache and module graph the same way a filesystem
// entrypoint does. Each call mints a fresh UUID-based URL since there is
// no natural canonical identity for an in-memory string.
func (c *ImportCache) RegisterEntrypointString(contents string, syntax logger.Syntax, prettyURL string) *logger.Source {
	canonical := fmt.Sprintf("%s%s", entrypointStringScheme, uuid.NewString())
	return c.registry.Register(canonical, orDefault(prettyURL, "stdin"), syntax, contents)
}

// SourceMapURL implements spec section 4.1 step 5's rewrite: an
// entrypoint registered from a bare string (RegisterEntrypointString) has
// no real URL, so it's rendered as a data URL embedding its own text;
// every other source is rewritten through whichever configured importer
// canonicalized it, falling back to the canonical URL unchanged if none
// of them implement ExternalURLProvider.
func (c *ImportCache) SourceMapURL(source *logger.Source) string {
	if strings.HasPrefix(source.CanonicalURL, entrypointStringScheme) {
		return helpers.EncodeStringAsShortestDataURL("text/plain", source.Contents)
	}
	for _, imp := range c.importers {
		if provider, ok := imp.(ExternalURLProvider); ok {
			if url, ok := provider.ExternalURL(source.CanonicalURL); ok {
				return url
			}
		}
	}
	return source.CanonicalURL
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func prettyURL(canonical string) string {
	return canonical
}
