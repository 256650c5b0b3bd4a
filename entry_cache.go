package bmap

import lru "github.com/hashicorp/golang-lru"

// EntryCache caches decoded entries by the fingerprint of their encoding. The
// cached slices are never modified, so one cache can be shared by any number
// of maps. Use a separate cache per Unmarshal function.
type EntryCache interface {
	// Add adds freshly-decoded entries to the cache.
	Add(key, value interface{})
	// Contains indicates entries with the given fingerprint have been decoded.
	Contains(key interface{}) bool
	// Get retrieves the already-decoded entries with the given fingerprint, if cached.
	Get(key interface{}) (value interface{}, ok bool)
}

// NewEntryCache creates a new LRU-based entry cache of the given size.
func NewEntryCache(size int) EntryCache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return cache
}
