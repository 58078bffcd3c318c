package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// SearchParams filters owner-or-grantee visible, non-deleted items.
type SearchParams struct {
	Query       string
	Kind        entity.ItemKind
	ContentType string
	ParentID    *uuid.UUID
	FromSize    *int64
	ToSize      *int64
}

func (r *ItemRepository) Create(item *entity.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.Create(item).Error
}

func (r *ItemRepository) FindByID(id uuid.UUID) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) FindByIDs(ids []uuid.UUID) ([]entity.Item, error) {
	var items []entity.Item
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ItemRepository) FindByParentID(parentID uuid.UUID) ([]entity.Item, error) {
	var items []entity.Item
	err := r.db.Where("parent_id = ?", parentID).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ItemRepository) ExistsByIDAndOwnerID(id, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Item{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SoftDelete stamps deleted_at on exactly one item. Descendants keep their
// own deleted_at; the trash collector removes the whole subtree once the
// root expires.
func (r *ItemRepository) SoftDelete(id uuid.UUID, at time.Time) error {
	return r.db.Model(&entity.Item{}).
		Where("id = ?", id).
		Update("deleted_at", at).Error
}

// FindExpiredDeletedRoots returns soft-deleted items older than cutoff whose
// parent is absent or not itself soft-deleted. Selecting only subtree roots
// keeps concurrently purged subtrees disjoint.
func (r *ItemRepository) FindExpiredDeletedRoots(cutoff time.Time) ([]entity.Item, error) {
	var items []entity.Item
	err := r.db.
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Where("parent_id IS NULL OR parent_id IN (SELECT id FROM items WHERE deleted_at IS NULL)").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes the item row itself. Permission rows are removed separately
// by the caller before the row goes away.
func (r *ItemRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&entity.Item{}).Error
}

func (r *ItemRepository) Search(userID uuid.UUID, params SearchParams) ([]entity.Item, error) {
	q := r.db.Model(&entity.Item{}).
		Distinct("items.*").
		Joins("LEFT JOIN permissions ON permissions.item_id = items.id").
		Where("items.owner_id = ? OR permissions.user_id = ?", userID, userID).
		Where("items.deleted_at IS NULL")

	if params.Query != "" {
		q = q.Where("LOWER(items.name) LIKE ?", "%"+strings.ToLower(params.Query)+"%")
	}
	if params.Kind != "" {
		q = q.Where("items.kind = ?", params.Kind)
	} else if params.ContentType != "" {
		q = q.Where("items.content_type = ?", params.ContentType)
	}
	if params.ParentID != nil {
		q = q.Where("items.parent_id = ?", *params.ParentID)
	}
	if params.FromSize != nil {
		q = q.Where("items.size >= ?", *params.FromSize)
	}
	if params.ToSize != nil {
		q = q.Where("items.size <= ?", *params.ToSize)
	}

	var items []entity.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UsageStats returns the live FILE count and byte total owned by one user.
func (r *ItemRepository) UsageStats(ownerID uuid.UUID) (totalFiles int64, totalSize int64, err error) {
	row := r.db.Model(&entity.Item{}).
		Select("COUNT(*), COALESCE(SUM(size), 0)").
		Where("owner_id = ? AND kind = ? AND deleted_at IS NULL", ownerID, entity.ItemKindFile).
		Row()
	err = row.Scan(&totalFiles, &totalSize)
	return totalFiles, totalSize, err
}
