package entity

import (
	"time"

	"github.com/google/uuid"
)

type PermissionLevel string

const (
	PermissionView PermissionLevel = "VIEW"
	PermissionEdit PermissionLevel = "EDIT"
)

// Permission is one access grant for one (item, user) pair. The unique index
// keeps at most one row per pair; re-granting overwrites level and inherited.
type Permission struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID       `json:"item_id" gorm:"type:uuid;not null;uniqueIndex:idx_permissions_item_user"`
	UserID    uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_permissions_item_user"`
	Level     PermissionLevel `json:"level" gorm:"type:varchar(16);not null"`
	Inherited bool            `json:"inherited" gorm:"not null;default:false"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
}
