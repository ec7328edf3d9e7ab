package resource

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry keeps one container per console session and resource.
type Registry struct {
	containers *xsync.MapOf[string, any]
}

func NewRegistry() *Registry {
	return &Registry{containers: xsync.NewMapOf[string, any]()}
}

func registryKey(session, name string) string {
	return session + "|" + name
}

// Get returns the session's container for name, building it on first use.
func Get[T any](r *Registry, session, name string, build func() *Container[T]) *Container[T] {
	v, _ := r.containers.LoadOrCompute(registryKey(session, name), func() any {
		return build()
	})
	c, ok := v.(*Container[T])
	if !ok {
		// Same name registered with a different row type; replace it.
		c = build()
		r.containers.Store(registryKey(session, name), c)
	}
	return c
}

// Drop forgets every container belonging to session.
func (r *Registry) Drop(session string) int {
	prefix := session + "|"
	var keys []string
	r.containers.Range(func(key string, _ any) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	for _, k := range keys {
		r.containers.Delete(k)
	}
	return len(keys)
}

func (r *Registry) Len() int {
	return r.containers.Size()
}
