package repository

import (
	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) FindByItemID(itemID uuid.UUID) ([]entity.Permission, error) {
	var perms []entity.Permission
	err := r.db.Where("item_id = ?", itemID).Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *PermissionRepository) FindByItemAndUser(itemID, userID uuid.UUID) (*entity.Permission, error) {
	var perm entity.Permission
	err := r.db.Where("item_id = ? AND user_id = ?", itemID, userID).First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) FindByUserID(userID uuid.UUID) ([]entity.Permission, error) {
	var perms []entity.Permission
	err := r.db.Where("user_id = ?", userID).Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// Upsert writes one grant per (item, user): an existing row has its level and
// inherited flag overwritten, never duplicated.
func (r *PermissionRepository) Upsert(perm *entity.Permission) error {
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "inherited"}),
	}).Create(perm).Error
}

func (r *PermissionRepository) ExistsByItemAndUser(itemID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Permission{}).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PermissionRepository) ExistsByItemAndUserAndLevel(itemID, userID uuid.UUID, level entity.PermissionLevel) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Permission{}).
		Where("item_id = ? AND user_id = ? AND level = ?", itemID, userID, level).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PermissionRepository) DeleteByItemID(itemID uuid.UUID) error {
	return r.db.Where("item_id = ?", itemID).Delete(&entity.Permission{}).Error
}
