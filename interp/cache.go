package interp

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// compiledModule holds the parsed, shape-validated AST for a module
// and its def table, keyed by module_id. It is not yet name/arity
// matched or whitelist-validated: both depend on which function/arity
// is requested, so they run on every call.
type compiledModule struct {
	root *node
	md   *moduleDefs
}

// moduleCache is an in-memory, process-lifetime cache of parsed
// modules keyed by module_id. Concurrent compiles of the same key are
// collapsed into one via singleflight, the way a production module
// loader deduplicates concurrent compiles of the same unit of code;
// every map read and write goes through mu. There is deliberately
// no on-disk persistence; losing the cache on process restart is
// acceptable.
type moduleCache struct {
	mu    sync.RWMutex
	byID  map[string]*compiledModule
	group singleflight.Group
}

func newModuleCache() *moduleCache {
	return &moduleCache{byID: map[string]*compiledModule{}}
}

func (c *moduleCache) get(moduleID string) (*compiledModule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cm, ok := c.byID[moduleID]
	return cm, ok
}

// getOrCompile returns the cached module for moduleID, compiling it
// exactly once even under concurrent callers racing on the same id.
func (c *moduleCache) getOrCompile(moduleID string, compile func() (*compiledModule, error)) (*compiledModule, error) {
	if cm, ok := c.get(moduleID); ok {
		return cm, nil
	}
	v, err, _ := c.group.Do(moduleID, func() (any, error) {
		if cm, ok := c.get(moduleID); ok {
			return cm, nil
		}
		cm, err := compile()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.byID[moduleID] = cm
		c.mu.Unlock()
		return cm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiledModule), nil
}

// purge evicts moduleID from the cache under the map lock. It does not
// wait for an in-flight compile of the same id, which may store its
// result after the purge.
func (c *moduleCache) purge(moduleID string) {
	c.mu.Lock()
	delete(c.byID, moduleID)
	c.mu.Unlock()
}
