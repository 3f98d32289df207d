// Package classify partitions imported module names into standard-library,
// local and third-party references.
//
// Classification is a pure function of module name, project namespace and
// the local module index, so results are memoized per run and may also be
// stored in a persistent cache. Re-querying the same name within a run
// always returns the same answer.
package classify

import (
	"context"
	"strings"
	"time"

	"pybale/pkg/cache"
)

// Kind is the classification of one imported module name.
type Kind int

const (
	// Stdlib marks a module shipped with the Python standard distribution.
	Stdlib Kind = iota
	// Local marks a module that resolves to a file of the project being bundled.
	Local
	// ThirdParty marks an externally distributed package.
	ThirdParty
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Stdlib:
		return "stdlib"
	case Local:
		return "local"
	case ThirdParty:
		return "third-party"
	default:
		return "unknown"
	}
}

// cacheTTL bounds persistent classification entries; the registry version
// in the key already invalidates across upgrades, the TTL is a backstop.
const cacheTTL = 30 * 24 * time.Hour

// Classifier classifies module names for one bundling run.
//
// It carries all state explicitly: the stdlib registry, the project
// namespace, the index of collected local top-level modules, the per-run
// memo and an optional persistent cache. There is no package-level state.
type Classifier struct {
	registry  *Registry
	namespace string
	local     map[string]bool
	memo      map[string]Kind
	store     cache.Cache
}

// NewClassifier creates a classifier for one run.
//
// namespace is the project's import namespace (imports beginning with it are
// local by definition). localModules is the set of top-level module names
// derived from the collected files. store may be nil to disable the
// persistent cache.
func NewClassifier(registry *Registry, namespace string, localModules []string, store cache.Cache) *Classifier {
	if store == nil {
		store = cache.NewNullCache()
	}
	local := make(map[string]bool, len(localModules))
	for _, m := range localModules {
		if m != "" {
			local[m] = true
		}
	}
	return &Classifier{
		registry:  registry,
		namespace: namespace,
		local:     local,
		memo:      make(map[string]Kind),
		store:     store,
	}
}

// Classify returns the kind of the given module name.
//
// Rules, in order:
//
//  1. A relative-import marker (leading dot) or the project namespace as
//     first path component means local.
//  2. A top-level component found in the stdlib registry means stdlib.
//     This is checked before the local index so a plain name that shadows a
//     stdlib module classifies as stdlib, never as a bundling dependency.
//  3. A top-level component matching a collected local module means local.
//  4. Everything else is third-party.
func (c *Classifier) Classify(ctx context.Context, module string) Kind {
	if kind, ok := c.memo[module]; ok {
		return kind
	}
	kind, cacheable := c.classify(ctx, module)
	c.memo[module] = kind
	if cacheable {
		c.storePut(ctx, module, kind)
	}
	return kind
}

// classify computes the kind. The second return reports whether the result
// may be written to the persistent cache; hits that came from it are not
// written back.
func (c *Classifier) classify(ctx context.Context, module string) (Kind, bool) {
	if strings.HasPrefix(module, ".") {
		return Local, false
	}
	top := TopLevel(module)
	if c.namespace != "" && top == c.namespace {
		return Local, false
	}

	if kind, ok := c.storeGet(ctx, module); ok {
		return kind, false
	}

	if c.registry.Contains(module) {
		// Names contained only via extra_stdlib depend on per-project
		// configuration, which is not part of the cache key - never
		// persist them.
		return Stdlib, !c.registry.Extended(module)
	}
	if c.local[top] {
		// Local-index hits depend on the collected file set, which is not
		// part of the cache key - never persist them.
		return Local, false
	}
	return ThirdParty, true
}

func (c *Classifier) storeGet(ctx context.Context, module string) (Kind, bool) {
	data, ok, err := c.store.Get(ctx, c.key(module))
	if err != nil || !ok {
		return 0, false
	}
	switch string(data) {
	case "stdlib":
		return Stdlib, true
	case "third-party":
		return ThirdParty, true
	}
	return 0, false
}

func (c *Classifier) storePut(ctx context.Context, module string, kind Kind) {
	// Cache failures are invisible: the cache is an optimization only.
	_ = c.store.Set(ctx, c.key(module), []byte(kind.String()), cacheTTL)
}

func (c *Classifier) key(module string) string {
	return cache.ClassificationKey(c.registry.Version(), c.namespace, module)
}

// TopLevel returns the first component of a dotted module path.
func TopLevel(module string) string {
	top, _, _ := strings.Cut(module, ".")
	return top
}
