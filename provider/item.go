package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/repository"
	"gorm.io/gorm"
)

// ItemProvider implements the user-facing item operations: create, upload,
// download, share, soft delete, search and usage analytics. Every operation
// that touches an item goes through the permission provider first.
type ItemProvider struct {
	repo       *repository.Repository
	permission *PermissionProvider
	blobs      BlobStorage
	notifier   ShareNotifier
	cache      Cache
	cacheTTL   time.Duration
	logger     *infra.LoggerClient
}

type ItemProviderDeps struct {
	Repo       *repository.Repository
	Permission *PermissionProvider
	Blobs      BlobStorage
	Notifier   ShareNotifier
	Cache      Cache
	CacheTTL   time.Duration
	Logger     *infra.LoggerClient
}

func NewItemProvider(deps ItemProviderDeps) *ItemProvider {
	return &ItemProvider{
		repo:       deps.Repo,
		permission: deps.Permission,
		blobs:      deps.Blobs,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     deps.Logger,
	}
}

type SharedItem struct {
	Item      entity.Item            `json:"item"`
	Level     entity.PermissionLevel `json:"level"`
	Inherited bool                   `json:"inherited"`
}

type UsageStats struct {
	TotalFiles int64 `json:"total_files"`
	TotalSize  int64 `json:"total_size"`
}

// resolveParent fetches and validates the target parent for a create. A nil
// parentID means the item goes to the caller's root.
func (p *ItemProvider) resolveParent(parentID *uuid.UUID, userID uuid.UUID) (*entity.Item, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := p.repo.ItemRepo.FindByID(*parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parent folder: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch parent folder: %w", err)
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("parent is not a folder: %w", ErrInvalidArgument)
	}

	canEdit, err := p.permission.CanEdit(userID, parent)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, fmt.Errorf("no edit permission on parent folder: %w", ErrPermissionDenied)
	}
	return parent, nil
}

func (p *ItemProvider) CreateFolder(ctx context.Context, name string, parentID *uuid.UUID, ownerID uuid.UUID) (*entity.Item, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", ErrInvalidArgument)
	}

	parent, err := p.resolveParent(parentID, ownerID)
	if err != nil {
		return nil, err
	}

	folder := &entity.Item{
		ID:       uuid.New(),
		Name:     name,
		Kind:     entity.ItemKindFolder,
		OwnerID:  ownerID,
		ParentID: parentID,
	}
	if err := p.repo.ItemRepo.Create(folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	if err := p.permission.InitialGrants(folder, parent, ownerID); err != nil {
		return nil, err
	}
	return folder, nil
}

func (p *ItemProvider) UploadFile(ctx context.Context, name, contentType string, size int64, reader io.Reader, parentID *uuid.UUID, ownerID uuid.UUID) (*entity.Item, error) {
	if name == "" || size == 0 {
		return nil, fmt.Errorf("file is empty: %w", ErrInvalidArgument)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	parent, err := p.resolveParent(parentID, ownerID)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	contentKey := "items/" + id.String()
	if err := p.blobs.Put(ctx, contentKey, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file bytes: %w", err)
	}

	file := &entity.Item{
		ID:          id,
		Name:        name,
		Kind:        entity.ItemKindFile,
		Size:        size,
		ContentKey:  contentKey,
		ContentType: contentType,
		OwnerID:     ownerID,
		ParentID:    parentID,
	}
	if err := p.repo.ItemRepo.Create(file); err != nil {
		// The metadata row is the source of truth; orphaned bytes are
		// reclaimed opportunistically.
		if removeErr := p.blobs.Remove(ctx, contentKey); removeErr != nil {
			p.logger.WarningWithContextf(ctx, "[Item] Failed to remove orphaned blob %s: %v", contentKey, removeErr)
		}
		return nil, fmt.Errorf("failed to create file item: %w", err)
	}
	if err := p.permission.InitialGrants(file, parent, ownerID); err != nil {
		return nil, err
	}

	p.invalidateUsage(ctx, ownerID)
	return file, nil
}

// Download returns the file item and a reader over its bytes. The item
// lookup runs before the access check, so an unknown id is NotFound while an
// existing-but-inaccessible one is PermissionDenied.
func (p *ItemProvider) Download(ctx context.Context, itemID, userID uuid.UUID) (*entity.Item, io.ReadCloser, error) {
	item, err := p.repo.ItemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("item: %w", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	if item.Kind != entity.ItemKindFile {
		return nil, nil, fmt.Errorf("item is not a file: %w", ErrInvalidArgument)
	}

	if item.OwnerID != userID {
		grant, err := p.repo.PermissionRepo.FindByItemAndUser(item.ID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("no permission to download: %w", ErrPermissionDenied)
			}
			return nil, nil, fmt.Errorf("failed to check grant: %w", err)
		}
		if grant.Level != entity.PermissionView && grant.Level != entity.PermissionEdit {
			return nil, nil, fmt.Errorf("no permission to download: %w", ErrPermissionDenied)
		}
	}

	reader, err := p.blobs.Get(ctx, item.ContentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("file bytes missing from storage: %w", ErrNotFound)
	}
	return item, reader, nil
}

func (p *ItemProvider) ListChildren(ctx context.Context, folderID, userID uuid.UUID) ([]entity.Item, error) {
	folder, err := p.repo.ItemRepo.FindByID(folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("folder: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch folder: %w", err)
	}
	if !folder.IsFolder() {
		return nil, fmt.Errorf("item is not a folder: %w", ErrInvalidArgument)
	}

	canView, err := p.permission.CanView(userID, folder)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, fmt.Errorf("no view permission: %w", ErrPermissionDenied)
	}

	return p.repo.ItemRepo.FindByParentID(folderID)
}

// SoftDelete stamps deleted_at on exactly the targeted item; descendants are
// swept later by the trash collector along with the root.
func (p *ItemProvider) SoftDelete(ctx context.Context, itemID, userID uuid.UUID) error {
	item, err := p.repo.ItemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch item: %w", err)
	}

	canEdit, err := p.permission.CanEdit(userID, item)
	if err != nil {
		return err
	}
	if !canEdit {
		return fmt.Errorf("no edit permission: %w", ErrPermissionDenied)
	}

	if err := p.repo.ItemRepo.SoftDelete(itemID, time.Now()); err != nil {
		return fmt.Errorf("failed to soft delete item: %w", err)
	}

	p.invalidateUsage(ctx, item.OwnerID)
	return nil
}

// Share grants the level to the user behind granteeEmail on the item and all
// its descendants, then notifies the grantee. Notification delivery is
// fire-and-forget and never rolls back the grant.
func (p *ItemProvider) Share(ctx context.Context, itemID, actorID uuid.UUID, granteeEmail string, level entity.PermissionLevel) error {
	if level != entity.PermissionView && level != entity.PermissionEdit {
		return fmt.Errorf("unknown permission level %q: %w", level, ErrInvalidArgument)
	}

	item, err := p.repo.ItemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch item: %w", err)
	}

	canEdit, err := p.permission.CanEdit(actorID, item)
	if err != nil {
		return err
	}
	if !canEdit {
		return fmt.Errorf("no permission to share this item: %w", ErrPermissionDenied)
	}

	grantee, err := p.repo.UserRepo.FindByEmail(granteeEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("email not found: %w", ErrInvalidArgument)
		}
		return fmt.Errorf("failed to fetch grantee: %w", err)
	}

	if err := p.permission.Share(item, grantee.ID, level); err != nil {
		return err
	}

	if p.notifier != nil {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := p.notifier.SendShareNotification(notifyCtx, grantee.Email, item.Name, string(level)); err != nil {
				p.logger.WarningWithContextf(notifyCtx, "[Item] Failed to publish share notification for %s: %v", grantee.Email, err)
			}
		}()
	}
	return nil
}

func (p *ItemProvider) SharedWithMe(ctx context.Context, userID uuid.UUID) ([]SharedItem, error) {
	grants, err := p.repo.PermissionRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.ItemID)
	}
	items, err := p.repo.ItemRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared items: %w", err)
	}

	byID := make(map[uuid.UUID]entity.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	shared := make([]SharedItem, 0, len(grants))
	for _, grant := range grants {
		item, ok := byID[grant.ItemID]
		if !ok {
			continue
		}
		shared = append(shared, SharedItem{
			Item:      item,
			Level:     grant.Level,
			Inherited: grant.Inherited,
		})
	}
	return shared, nil
}

// Search resolves the free-form type filter the way the API expects: a known
// kind filters on kind, anything else is treated as a content-type match.
func (p *ItemProvider) Search(ctx context.Context, userID uuid.UUID, query, typ string, parentID *uuid.UUID, fromSize, toSize *int64) ([]entity.Item, error) {
	params := repository.SearchParams{
		Query:    query,
		ParentID: parentID,
		FromSize: fromSize,
		ToSize:   toSize,
	}
	switch entity.ItemKind(typ) {
	case entity.ItemKindFile, entity.ItemKindFolder:
		params.Kind = entity.ItemKind(typ)
	default:
		params.ContentType = typ
	}
	return p.repo.ItemRepo.Search(userID, params)
}

func (p *ItemProvider) Usage(ctx context.Context, userID uuid.UUID) (UsageStats, error) {
	cacheKey := usageCacheKey(userID)
	if p.cache != nil {
		var cached UsageStats
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	totalFiles, totalSize, err := p.repo.ItemRepo.UsageStats(userID)
	if err != nil {
		return UsageStats{}, fmt.Errorf("failed to compute usage stats: %w", err)
	}
	stats := UsageStats{TotalFiles: totalFiles, TotalSize: totalSize}

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey, stats, p.cacheTTL); err != nil {
			p.logger.WarningWithContextf(ctx, "[Item] Failed to cache usage stats for %s: %v", userID, err)
		}
	}
	return stats, nil
}

func (p *ItemProvider) invalidateUsage(ctx context.Context, ownerID uuid.UUID) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, usageCacheKey(ownerID)); err != nil {
		p.logger.WarningWithContextf(ctx, "[Item] Failed to invalidate usage cache for %s: %v", ownerID, err)
	}
}

func usageCacheKey(userID uuid.UUID) string {
	return "usage:" + userID.String()
}
