package provider

import (
	"context"
	"io"
	"time"

	"github.com/tnqbao/gau-drive-service/config"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/repository"
)

// BlobStorage is the byte-level store behind items and archives. Satisfied
// by infra.MinioClient; tests use an in-memory implementation.
type BlobStorage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ShareNotifier delivers share notifications. Satisfied by
// produce.EmailService.
type ShareNotifier interface {
	SendShareNotification(ctx context.Context, recipient, itemName, level string) error
}

// Cache is the analytics cache. Satisfied by infra.RedisClient.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type Provider struct {
	Permission *PermissionProvider
	Item       *ItemProvider
	Archive    *ArchiveProvider
	Cleanup    *CleanupProvider
}

var providerInstance *Provider

func InitProvider(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Provider {
	if providerInstance != nil {
		return providerInstance
	}

	permission := NewPermissionProvider(repo)
	item := NewItemProvider(ItemProviderDeps{
		Repo:       repo,
		Permission: permission,
		Blobs:      infra.Minio,
		Notifier:   infra.Produce.EmailService,
		Cache:      infra.Redis,
		CacheTTL:   cfg.EnvConfig.Analytics.CacheTTL,
		Logger:     infra.Logger,
	})
	archive := NewArchiveProvider(repo, infra.Minio, infra.Logger)
	cleanup := NewCleanupProvider(CleanupProviderDeps{
		Repo:      repo,
		Blobs:     infra.Minio,
		Logger:    infra.Logger,
		Retention: time.Duration(cfg.EnvConfig.Trash.RetentionDays) * 24 * time.Hour,
		Workers:   cfg.EnvConfig.Trash.Workers,
		QueueSize: cfg.EnvConfig.Trash.QueueCapacity,
	})

	providerInstance = &Provider{
		Permission: permission,
		Item:       item,
		Archive:    archive,
		Cleanup:    cleanup,
	}

	return providerInstance
}

func GetProvider() *Provider {
	if providerInstance == nil {
		panic("Provider not initialized")
	}
	return providerInstance
}
