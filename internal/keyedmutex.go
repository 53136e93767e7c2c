package internal

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// KeyedMutex serializes operations per string key using a fixed set of lock
// stripes. Two keys hashing to the same stripe contend with each other, which
// is acceptable: correctness only requires that the same key is always
// serialized. The zero value is ready to use.
type KeyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

// Lock acquires the stripe for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &k.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
