package entity

import (
	"time"

	"github.com/google/uuid"
)

type ItemKind string

const (
	ItemKindFile   ItemKind = "FILE"
	ItemKindFolder ItemKind = "FOLDER"
)

// Item is one node of the per-owner file/folder tree. Children always point
// at an existing FOLDER parent and are never re-parented, so the tree stays
// acyclic by construction.
type Item struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(512);not null"`
	Kind        ItemKind   `json:"kind" gorm:"type:varchar(16);not null"`
	Size        int64      `json:"size" gorm:"not null;default:0"`
	ContentKey  string     `json:"-" gorm:"type:varchar(1024)"` // blob locator, FILE only
	ContentType string     `json:"content_type,omitempty" gorm:"type:varchar(255)"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`

	// DeletedAt marks exactly the item the caller trashed; it is not cascaded
	// to descendants. The whole subtree is removed once the root expires.
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (i *Item) IsFolder() bool {
	return i.Kind == ItemKindFolder
}
