package linkcheck

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("links")

type cacheEntry struct {
	OK        bool  `json:"ok"`
	Code      int   `json:"code"`
	CheckedAt int64 `json:"checked_at"`
}

// Cache remembers link check results in a bbolt file so repeated runs
// skip recently verified URLs. Only successes are served from cache.
type Cache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Put(url string, ok bool, code int) error {
	entry := cacheEntry{OK: ok, Code: code, CheckedAt: c.now().Unix()}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(url), data)
	})
}

// IsFresh reports whether the URL was checked successfully within the
// TTL. Past failures never count as fresh.
func (c *Cache) IsFresh(url string) bool {
	var entry cacheEntry
	found := false
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(cacheBucket).Get([]byte(url))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found || !entry.OK {
		return false
	}
	return c.now().Sub(time.Unix(entry.CheckedAt, 0)) < c.ttl
}
