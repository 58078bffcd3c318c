package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-drive-service/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Item{}, &entity.Permission{}))
	return NewRepository(db)
}

func createItem(t *testing.T, repo *Repository, name string, kind entity.ItemKind, ownerID uuid.UUID, parentID *uuid.UUID) *entity.Item {
	t.Helper()
	item := &entity.Item{
		ID:       uuid.New(),
		Name:     name,
		Kind:     kind,
		OwnerID:  ownerID,
		ParentID: parentID,
	}
	require.NoError(t, repo.ItemRepo.Create(item))
	return item
}

func TestFindExpiredDeletedRoots(t *testing.T) {
	repo := newTestRepository(t)
	owner := uuid.New()
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	expired := time.Now().Add(-40 * 24 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	// Top-level expired root: selected.
	topRoot := createItem(t, repo, "top", entity.ItemKindFolder, owner, nil)
	require.NoError(t, repo.ItemRepo.SoftDelete(topRoot.ID, expired))

	// Expired item under a live parent: also a root.
	liveParent := createItem(t, repo, "live", entity.ItemKindFolder, owner, nil)
	midRoot := createItem(t, repo, "mid", entity.ItemKindFolder, owner, &liveParent.ID)
	require.NoError(t, repo.ItemRepo.SoftDelete(midRoot.ID, expired))

	// Expired item whose parent is itself soft-deleted: covered by the
	// parent's purge, never selected on its own.
	nested := createItem(t, repo, "nested", entity.ItemKindFolder, owner, &topRoot.ID)
	require.NoError(t, repo.ItemRepo.SoftDelete(nested.ID, expired))

	// Deleted but still inside retention.
	freshItem := createItem(t, repo, "fresh", entity.ItemKindFolder, owner, nil)
	require.NoError(t, repo.ItemRepo.SoftDelete(freshItem.ID, fresh))

	// Never deleted.
	createItem(t, repo, "alive", entity.ItemKindFolder, owner, nil)

	roots, err := repo.ItemRepo.FindExpiredDeletedRoots(cutoff)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(roots))
	for _, r := range roots {
		ids[r.ID] = true
	}
	assert.Len(t, roots, 2)
	assert.True(t, ids[topRoot.ID])
	assert.True(t, ids[midRoot.ID])
}

func TestExistsByIDAndOwnerID(t *testing.T) {
	repo := newTestRepository(t)
	owner := uuid.New()
	item := createItem(t, repo, "mine", entity.ItemKindFolder, owner, nil)

	ok, err := repo.ItemRepo.ExistsByIDAndOwnerID(item.ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ItemRepo.ExistsByIDAndOwnerID(item.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionUpsertKeepsOneRowPerPair(t *testing.T) {
	repo := newTestRepository(t)
	itemID := uuid.New()
	userID := uuid.New()

	require.NoError(t, repo.PermissionRepo.Upsert(&entity.Permission{
		ItemID: itemID, UserID: userID, Level: entity.PermissionView, Inherited: true,
	}))
	require.NoError(t, repo.PermissionRepo.Upsert(&entity.Permission{
		ItemID: itemID, UserID: userID, Level: entity.PermissionEdit, Inherited: false,
	}))

	grants, err := repo.PermissionRepo.FindByItemID(itemID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, entity.PermissionEdit, grants[0].Level)
	assert.False(t, grants[0].Inherited)
}

func TestUsageStatsCountsOnlyLiveFiles(t *testing.T) {
	repo := newTestRepository(t)
	owner := uuid.New()
	other := uuid.New()

	a := &entity.Item{ID: uuid.New(), Name: "a.txt", Kind: entity.ItemKindFile, Size: 70, OwnerID: owner}
	require.NoError(t, repo.ItemRepo.Create(a))
	require.NoError(t, repo.ItemRepo.Create(&entity.Item{ID: uuid.New(), Name: "b.txt", Kind: entity.ItemKindFile, Size: 30, OwnerID: owner}))
	require.NoError(t, repo.ItemRepo.Create(&entity.Item{ID: uuid.New(), Name: "c.txt", Kind: entity.ItemKindFile, Size: 100, OwnerID: other}))
	createItem(t, repo, "folder", entity.ItemKindFolder, owner, nil)

	files, size, err := repo.ItemRepo.UsageStats(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), files)
	assert.Equal(t, int64(100), size)

	// Trashed files drop out of the totals immediately.
	require.NoError(t, repo.ItemRepo.SoftDelete(a.ID, time.Now()))
	files, size, err = repo.ItemRepo.UsageStats(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), files)
	assert.Equal(t, int64(30), size)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	repo := newTestRepository(t)
	owner := uuid.New()

	err := repo.Transaction(func(txRepo *Repository) error {
		createItem(t, txRepo, "doomed", entity.ItemKindFolder, owner, nil)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, repo.db.Model(&entity.Item{}).Count(&count).Error)
	assert.Zero(t, count)
}
