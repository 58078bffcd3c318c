package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: would get its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Item{}, &entity.Permission{}))
	return repository.NewRepository(db)
}

// fakeBlobStore keeps blob bytes in memory. It can be told to reject writes
// without draining the stream, the way a real store fails on a connection
// error, and to fail removals for specific keys.
type fakeBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	rejectPuts bool
	failKeys   map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:  make(map[string][]byte),
		failKeys: make(map[string]bool),
	}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	f.mu.Lock()
	rejected := f.rejectPuts
	f.mu.Unlock()
	if rejected {
		// Fail before touching the reader, leaving the stream undrained.
		return fmt.Errorf("fake store rejected %s", key)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) setRejectPuts(reject bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectPuts = reject
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("fake blob %s does not exist", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return fmt.Errorf("fake remove failure for %s", key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeBlobStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) SendShareNotification(ctx context.Context, recipient, itemName, level string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recipient)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = data
	f.sets++
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	if !ok {
		return infra.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
		f.deletes++
	}
	return nil
}

func newTestItemProvider(t *testing.T, repo *repository.Repository, blobs *fakeBlobStore, notifier *fakeNotifier, cache *fakeCache) *ItemProvider {
	t.Helper()
	deps := ItemProviderDeps{
		Repo:       repo,
		Permission: NewPermissionProvider(repo),
		Blobs:      blobs,
		CacheTTL:   time.Minute,
		Logger:     infra.NewTestLogger(),
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	if cache != nil {
		deps.Cache = cache
	}
	return NewItemProvider(deps)
}

func mustCreateUser(t *testing.T, repo *repository.Repository, email string) *entity.User {
	t.Helper()
	user := &entity.User{Email: email, Password: "x"}
	require.NoError(t, repo.UserRepo.Create(user))
	return user
}
