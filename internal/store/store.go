package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kwhalen/slate/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names. One bucket per collection kind plus one for fingerprints.
var (
	bucketMeta = []byte("meta")
)

// envelope wraps a stored collection with the time it was saved
type envelope struct {
	SavedAt int64           `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// CampusStore implements domain.CacheStore using BoltDB.
// Every key is prefixed by the owning account's scope, so two accounts
// on the same machine never read each other's data.
type CampusStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

func NewCampusStore(baseCacheDir, serverURL string) (*CampusStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &CampusStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "slate.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets() {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CampusStore{db: db, cache: make(map[string][]byte)}, nil
}

func allBuckets() [][]byte {
	buckets := make([][]byte, 0, len(domain.AllKinds())+1)
	for _, kind := range domain.AllKinds() {
		buckets = append(buckets, []byte(kind))
	}
	return append(buckets, bucketMeta)
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CampusStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CampusStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CampusStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *CampusStore) deleteKey(bucket []byte, key string) {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *CampusStore) deletePrefix(bucket []byte, prefix string) {
	// Clear from memory cache
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB using prefix scan
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Collections ===

func (s *CampusStore) Put(kind domain.ResourceKind, scope string, data []byte) error {
	env := envelope{SavedAt: time.Now().Unix(), Data: data}
	return s.set([]byte(kind), scope, env)
}

func (s *CampusStore) Get(kind domain.ResourceKind, scope string) ([]byte, int64, bool) {
	var env envelope
	if !s.get([]byte(kind), scope, &env) {
		return nil, 0, false
	}
	return env.Data, env.SavedAt, true
}

// === Fingerprints (key: {scope}:{kind}) ===

func (s *CampusStore) PutFingerprints(kind domain.ResourceKind, scope string, fps domain.Fingerprints) error {
	return s.set(bucketMeta, scope+":"+string(kind), fps)
}

func (s *CampusStore) GetFingerprints(kind domain.ResourceKind, scope string) (domain.Fingerprints, bool) {
	var fps domain.Fingerprints
	ok := s.get(bucketMeta, scope+":"+string(kind), &fps)
	return fps, ok
}

// === Scope invalidation ===

// ClearScope wipes every collection and fingerprint map cached for one
// account. Collection slots are keyed by the exact scope; fingerprint
// keys carry a ":" separator so the prefix cannot bleed into another
// account's entries.
func (s *CampusStore) ClearScope(scope string) error {
	for _, kind := range domain.AllKinds() {
		s.deleteKey([]byte(kind), scope)
	}
	s.deletePrefix(bucketMeta, scope+":")
	return nil
}

// === Typed access ===

// SaveItems encodes a collection snapshot into the slot for kind+scope
func SaveItems[T domain.Resource](cs domain.CacheStore, kind domain.ResourceKind, scope string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return cs.Put(kind, scope, data)
}

// LoadItems decodes the cached snapshot for kind+scope, reporting when it
// was saved so callers can surface staleness
func LoadItems[T domain.Resource](cs domain.CacheStore, kind domain.ResourceKind, scope string) ([]T, time.Time, bool) {
	data, savedAt, ok := cs.Get(kind, scope)
	if !ok {
		return nil, time.Time{}, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, time.Time{}, false
	}
	return items, time.Unix(savedAt, 0), true
}
