package lru

import (
	"container/list"
	"sync"
)

type item[V any] struct {
	data   V
	keyPtr *list.Element
}

// Cache is a fixed-capacity LRU map safe for concurrent use.
type Cache[K comparable, V any] struct {
	queue    *list.List
	items    map[K]*item[V]
	capacity int
	mx       sync.Mutex
}

func New[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		queue:    list.New(),
		items:    map[K]*item[V]{},
		capacity: capacity,
	}
}

func (c *Cache[K, V]) evictOldest() {
	back := c.queue.Back()
	c.queue.Remove(back)
	delete(c.items, back.Value.(K)) //nolint:forcetypeassert // keys only
}

func (c *Cache[K, V]) Put(k K, v V) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if it, ok := c.items[k]; ok {
		it.data = v
		c.queue.MoveToFront(it.keyPtr)
		return
	}

	if len(c.items) == c.capacity {
		c.evictOldest()
	}
	c.items[k] = &item[V]{
		data:   v,
		keyPtr: c.queue.PushFront(k),
	}
}

func (c *Cache[K, V]) Get(k K) (v V, ok bool) { //nolint:ireturn // generic value
	c.mx.Lock()
	defer c.mx.Unlock()

	if it, ok := c.items[k]; ok {
		c.queue.MoveToFront(it.keyPtr)
		return it.data, true
	}

	return v, false
}

// Delete drops the key if present.
func (c *Cache[K, V]) Delete(k K) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if it, ok := c.items[k]; ok {
		c.queue.Remove(it.keyPtr)
		delete(c.items, k)
	}
}

func (c *Cache[K, V]) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()

	return len(c.items)
}
