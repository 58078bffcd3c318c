package controller_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-drive-service/config"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/http/controller"
	routes "github.com/tnqbao/gau-drive-service/http/route"
	infraPkg "github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/provider"
	"github.com/tnqbao/gau-drive-service/repository"
	"github.com/tnqbao/gau-drive-service/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memBlobStore is an in-memory provider.BlobStorage for router-level tests.
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (m *memBlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("blob %s does not exist", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type routerEnv struct {
	router *gin.Engine
	repo   *repository.Repository
	items  *provider.ItemProvider
	cfg    *config.Config
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Item{}, &entity.Permission{}))

	repo := repository.NewRepository(db)

	cfg := &config.Config{EnvConfig: &config.EnvConfig{}}
	cfg.EnvConfig.JWT.SecretKey = "router-test-secret"
	cfg.EnvConfig.JWT.Expire = 3600

	testLogger := infraPkg.NewTestLogger()
	blobs := newMemBlobStore()

	permission := provider.NewPermissionProvider(repo)
	items := provider.NewItemProvider(provider.ItemProviderDeps{
		Repo:       repo,
		Permission: permission,
		Blobs:      blobs,
		CacheTTL:   time.Minute,
		Logger:     testLogger,
	})
	archives := provider.NewArchiveProvider(repo, blobs, testLogger)
	cleanup := provider.NewCleanupProvider(provider.CleanupProviderDeps{
		Repo:      repo,
		Blobs:     blobs,
		Logger:    testLogger,
		Retention: time.Hour,
		Workers:   1,
		QueueSize: 1,
	})
	prov := &provider.Provider{
		Permission: permission,
		Item:       items,
		Archive:    archives,
		Cleanup:    cleanup,
	}

	ctrl := controller.NewController(cfg, &infraPkg.Infra{Logger: testLogger}, repo, prov)
	return &routerEnv{
		router: routes.SetupRouter(ctrl),
		repo:   repo,
		items:  items,
		cfg:    cfg,
	}
}

func (env *routerEnv) newUserWithToken(t *testing.T, email string) (*entity.User, string) {
	t.Helper()
	user := &entity.User{Email: email, Password: "x"}
	require.NoError(t, env.repo.UserRepo.Create(user))
	token, err := utils.GenerateToken(user.ID, env.cfg.EnvConfig)
	require.NoError(t, err)
	return user, token
}

func (env *routerEnv) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestArchiveRoutesRequireAuth(t *testing.T) {
	env := newRouterEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/folders/" + uuid.NewString() + "/archive"},
		{http.MethodGet, "/api/v1/archives/" + uuid.NewString()},
		{http.MethodGet, "/api/v1/archives/" + uuid.NewString() + "/file"},
	}
	for _, p := range paths {
		rec := env.do(p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestArchiveOverHTTP(t *testing.T) {
	env := newRouterEnv(t)
	owner, token := env.newUserWithToken(t, "owner@example.com")
	ctx := context.Background()

	folder, err := env.items.CreateFolder(ctx, "docs", nil, owner.ID)
	require.NoError(t, err)
	_, err = env.items.UploadFile(ctx, "a.txt", "text/plain", 5, strings.NewReader("alpha"), &folder.ID, owner.ID)
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/api/v1/folders/"+folder.ID.String()+"/archive", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID, ok := decodeData(t, rec)["request_id"].(string)
	require.True(t, ok)

	statusPath := "/api/v1/archives/" + requestID
	var lastData map[string]interface{}
	urlBeforeReady := false
	require.Eventually(t, func() bool {
		poll := env.do(http.MethodGet, statusPath, token, nil)
		if poll.Code != http.StatusOK {
			return false
		}
		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		if json.Unmarshal(poll.Body.Bytes(), &body) != nil {
			return false
		}
		lastData = body.Data
		if lastData["status"] != string(entity.ArchiveReady) {
			if _, ok := lastData["download_url"]; ok {
				urlBeforeReady = true
			}
			return false
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, urlBeforeReady, "download_url must only appear alongside READY")
	assert.Equal(t, "/api/v1/archives/"+requestID+"/file", lastData["download_url"])

	fetch := env.do(http.MethodGet, statusPath+"/file", token, nil)
	require.Equal(t, http.StatusOK, fetch.Code)
	assert.Equal(t, "application/zip", fetch.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="`+requestID+`.zip"`, fetch.Header().Get("Content-Disposition"))

	zr, err := zip.NewReader(bytes.NewReader(fetch.Body.Bytes()), int64(fetch.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "docs/a.txt", zr.File[0].Name)
}

func TestArchiveErrorStatusMapping(t *testing.T) {
	env := newRouterEnv(t)
	owner, token := env.newUserWithToken(t, "owner@example.com")
	_, strangerToken := env.newUserWithToken(t, "stranger@example.com")
	ctx := context.Background()

	folder, err := env.items.CreateFolder(ctx, "docs", nil, owner.ID)
	require.NoError(t, err)
	file, err := env.items.UploadFile(ctx, "a.txt", "text/plain", 1, strings.NewReader("a"), &folder.ID, owner.ID)
	require.NoError(t, err)

	// Unknown request ids are 404 on both the poll and the fetch route.
	rec := env.do(http.MethodGet, "/api/v1/archives/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(http.MethodGet, "/api/v1/archives/"+uuid.NewString()+"/file", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Archiving a FILE is an argument error.
	rec = env.do(http.MethodPost, "/api/v1/folders/"+file.ID.String()+"/archive", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Archiving an unknown folder is 404, not 403.
	rec = env.do(http.MethodPost, "/api/v1/folders/"+uuid.NewString()+"/archive", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// No grant row means the request is forbidden.
	rec = env.do(http.MethodPost, "/api/v1/folders/"+folder.ID.String()+"/archive", strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
