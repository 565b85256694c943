package pyenv

import (
	"context"
	"sync"

	"github.com/l3aro/unstar/internal/log"
	"github.com/l3aro/unstar/pkg/cache"
)

// Oracle answers "which names does 'from M import *' introduce" with
// memoization. The first query for a module pays the import cost and is
// reported as a diagnostic, since it runs module-level code of the analyzed
// tree. A failed import degrades to an empty export list: the failure is
// logged, scanning continues, and downstream the wildcard collapses to "no
// usable names".
type Oracle struct {
	loader Loader
	logger log.Logger

	mu    sync.Mutex
	names map[string][]string

	persisted *cache.LRUCache // optional, carries answers across runs
	scope     string          // environment fingerprint namespacing persisted keys
}

// NewOracle creates an oracle over the given loader.
func NewOracle(loader Loader, logger log.Logger) *Oracle {
	if logger == nil {
		logger = log.Default()
	}
	return &Oracle{
		loader: loader,
		logger: logger,
		names:  make(map[string][]string),
	}
}

// WithCache attaches a persistent cache consulted before the loader. Entries
// are keyed under scope, the loader environment's fingerprint, so answers
// produced by one interpreter or search path are never served to another.
func (o *Oracle) WithCache(c *cache.LRUCache, scope string) *Oracle {
	o.persisted = c
	o.scope = scope
	return o
}

func (o *Oracle) cacheKey(modpath string) string {
	return o.scope + "\x00" + modpath
}

// Names returns all the names imported by "import *" from the given module.
// The returned slice is shared; callers must not mutate it.
func (o *Oracle) Names(ctx context.Context, modpath string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if names, ok := o.names[modpath]; ok {
		return names
	}

	if o.persisted != nil {
		if names, err := o.persisted.Get(o.cacheKey(modpath)); err == nil {
			o.names[modpath] = names
			return names
		}
	}

	o.logger.Info("importing module to resolve import *", "module", modpath)
	names, err := o.loader.Load(ctx, modpath)
	if err != nil {
		o.logger.Error("failed to import module", "module", modpath, "error", err)
		names = []string{}
	}

	o.names[modpath] = names
	if o.persisted != nil && err == nil {
		o.persisted.Set(o.cacheKey(modpath), names)
	}
	return names
}
