package provider

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/repository"
)

// PermissionProvider maintains the grant rows behind the item tree: every
// reachable item carries a row for every user who can access it, and grants
// flow strictly downward.
type PermissionProvider struct {
	repo *repository.Repository
}

func NewPermissionProvider(repo *repository.Repository) *PermissionProvider {
	return &PermissionProvider{repo: repo}
}

// InitialGrants runs exactly once, synchronously, when an item is created.
// A root item gets a single explicit EDIT grant for its owner; a child copies
// every grant currently on its parent, marked inherited.
func (p *PermissionProvider) InitialGrants(item *entity.Item, parent *entity.Item, ownerID uuid.UUID) error {
	if parent == nil {
		return p.repo.PermissionRepo.Upsert(&entity.Permission{
			ItemID:    item.ID,
			UserID:    ownerID,
			Level:     entity.PermissionEdit,
			Inherited: false,
		})
	}

	parentGrants, err := p.repo.PermissionRepo.FindByItemID(parent.ID)
	if err != nil {
		return fmt.Errorf("failed to load parent grants: %w", err)
	}
	for _, grant := range parentGrants {
		err := p.repo.PermissionRepo.Upsert(&entity.Permission{
			ItemID:    item.ID,
			UserID:    grant.UserID,
			Level:     grant.Level,
			Inherited: true,
		})
		if err != nil {
			return fmt.Errorf("failed to copy grant for user %s: %w", grant.UserID, err)
		}
	}
	return nil
}

// Share upserts an explicit grant on the item, then pushes the same level
// down to every descendant as an inherited grant. The root grant is written
// before any descendant grant; the new level always wins over whatever a
// descendant already had for that user. Sharing a FILE is the single upsert.
func (p *PermissionProvider) Share(item *entity.Item, granteeID uuid.UUID, level entity.PermissionLevel) error {
	err := p.repo.PermissionRepo.Upsert(&entity.Permission{
		ItemID:    item.ID,
		UserID:    granteeID,
		Level:     level,
		Inherited: false,
	})
	if err != nil {
		return fmt.Errorf("failed to grant on item %s: %w", item.ID, err)
	}

	if !item.IsFolder() {
		return nil
	}
	return p.shareRecursive(item, granteeID, level)
}

func (p *PermissionProvider) shareRecursive(folder *entity.Item, granteeID uuid.UUID, level entity.PermissionLevel) error {
	children, err := p.repo.ItemRepo.FindByParentID(folder.ID)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", folder.ID, err)
	}
	for i := range children {
		child := &children[i]
		err := p.repo.PermissionRepo.Upsert(&entity.Permission{
			ItemID:    child.ID,
			UserID:    granteeID,
			Level:     level,
			Inherited: true,
		})
		if err != nil {
			return fmt.Errorf("failed to grant on descendant %s: %w", child.ID, err)
		}
		if child.IsFolder() {
			if err := p.shareRecursive(child, granteeID, level); err != nil {
				return err
			}
		}
	}
	return nil
}

// CanView reports whether the user owns the item or holds any grant on it.
func (p *PermissionProvider) CanView(userID uuid.UUID, item *entity.Item) (bool, error) {
	if item.OwnerID == userID {
		return true, nil
	}
	return p.repo.PermissionRepo.ExistsByItemAndUser(item.ID, userID)
}

// CanEdit reports whether the user owns the item or holds an EDIT grant.
func (p *PermissionProvider) CanEdit(userID uuid.UUID, item *entity.Item) (bool, error) {
	if item.OwnerID == userID {
		return true, nil
	}
	return p.repo.PermissionRepo.ExistsByItemAndUserAndLevel(item.ID, userID, entity.PermissionEdit)
}
