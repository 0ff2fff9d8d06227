package license

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// memCache is an in-memory LicenseCacheStorage for tests
type memCache struct {
	mu      sync.Mutex
	entries map[string]models.LicenseCacheEntry
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.LicenseCacheEntry)}
}

func (c *memCache) GetLicenseEntry(ctx context.Context, keyHash string) (*models.LicenseCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[keyHash]; ok {
		dup := entry
		return &dup, nil
	}
	return nil, nil
}

func (c *memCache) PutLicenseEntry(ctx context.Context, entry *models.LicenseCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.KeyHash] = *entry
	return nil
}

var _ interfaces.LicenseCacheStorage = (*memCache)(nil)

func testService(baseURL string, cache interfaces.LicenseCacheStorage) interfaces.LicenseValidator {
	return NewService(&common.LicenseConfig{
		APIKey:         "api-key",
		StoreID:        "123",
		CheckoutURL:    "https://shop.example/buy",
		BaseURL:        baseURL,
		CacheTTL:       common.Duration(time.Hour),
		RequestTimeout: common.Duration(2 * time.Second),
	}, cache, arbor.NewLogger())
}

func TestEnabledRequiresFullConfig(t *testing.T) {
	cache := newMemCache()
	logger := arbor.NewLogger()

	full := NewService(&common.LicenseConfig{APIKey: "k", StoreID: "1", CheckoutURL: "u"}, cache, logger)
	assert.True(t, full.Enabled())

	partial := NewService(&common.LicenseConfig{APIKey: "k", StoreID: "1"}, cache, logger)
	assert.False(t, partial.Enabled())

	empty := NewService(&common.LicenseConfig{}, cache, logger)
	assert.False(t, empty.Enabled())
}

func TestValidateActivatesNewKey(t *testing.T) {
	var activateCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/licenses/activate", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		activateCalls++
		fmt.Fprint(w, `{"activated":true,"meta":{"store_id":123,"product_id":9}}`)
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, reason := svc.Validate(context.Background(), "key-1")
	assert.True(t, valid)
	assert.Empty(t, reason)
	assert.Equal(t, 1, activateCalls)
}

func TestValidateFallsBackToValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/licenses/activate":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"activated":false,"error":"license key has reached activation limit"}`)
		case "/v1/licenses/validate":
			fmt.Fprint(w, `{"valid":true,"meta":{"store_id":123}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, reason := svc.Validate(context.Background(), "key-1")
	assert.True(t, valid)
	assert.Empty(t, reason)
}

func TestValidateRejectsWrongStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/licenses/activate":
			fmt.Fprint(w, `{"activated":true,"meta":{"store_id":999}}`)
		case "/v1/licenses/validate":
			fmt.Fprint(w, `{"valid":true,"meta":{"store_id":999}}`)
		}
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, reason := svc.Validate(context.Background(), "key-1")
	assert.False(t, valid)
	assert.Contains(t, reason, "different product")
}

func TestValidateAcceptsMissingStoreMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/licenses/activate", r.URL.Path)
		fmt.Fprint(w, `{"activated":true}`)
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, reason := svc.Validate(context.Background(), "key-1")
	assert.True(t, valid, "a verdict without store metadata passes; only an explicit mismatch rejects")
	assert.Empty(t, reason)
}

func TestValidateInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"activated":false,"valid":false,"error":"license_key not found"}`)
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, reason := svc.Validate(context.Background(), "bogus")
	assert.False(t, valid)
	assert.Contains(t, reason, "not found")
}

func TestValidateEmptyKey(t *testing.T) {
	svc := testService("http://unused.invalid", newMemCache())
	valid, reason := svc.Validate(context.Background(), "   ")
	assert.False(t, valid)
	assert.Contains(t, reason, "required")
}

func TestValidateUsesFreshCache(t *testing.T) {
	apiCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		fmt.Fprint(w, `{"activated":true,"meta":{"store_id":123}}`)
	}))
	defer srv.Close()

	svc := testService(srv.URL, newMemCache())
	valid, _ := svc.Validate(context.Background(), "key-1")
	require.True(t, valid)
	valid, _ = svc.Validate(context.Background(), "key-1")
	require.True(t, valid)
	assert.Equal(t, 1, apiCalls, "second validation must be served from cache")
}

func TestValidateHonorsCacheDuringOutage(t *testing.T) {
	cache := newMemCache()
	svc := testService("http://127.0.0.1:1", cache) // nothing listens here

	// Seed a stale verdict, older than the TTL
	hash := hashKey("key-1")
	require.NoError(t, cache.PutLicenseEntry(context.Background(), &models.LicenseCacheEntry{
		KeyHash:     hash,
		Valid:       true,
		LastChecked: time.Now().Add(-48 * time.Hour),
	}))

	valid, _ := svc.Validate(context.Background(), "key-1")
	assert.True(t, valid, "stale cached verdict must stand in during an API outage")
}

func TestValidateOutageWithoutCache(t *testing.T) {
	svc := testService("http://127.0.0.1:1", newMemCache())
	valid, reason := svc.Validate(context.Background(), "key-1")
	assert.False(t, valid)
	assert.Contains(t, reason, "temporarily unavailable")
}

func TestKeysAreCachedAsHashes(t *testing.T) {
	cache := newMemCache()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"activated":true,"meta":{"store_id":123}}`)
	}))
	defer srv.Close()

	svc := testService(srv.URL, cache)
	valid, _ := svc.Validate(context.Background(), "secret-key")
	require.True(t, valid)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	for hash := range cache.entries {
		assert.NotContains(t, hash, "secret-key")
		assert.Len(t, hash, 64, "cache keys are hex SHA-256 digests")
	}
}
