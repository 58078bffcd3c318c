package provider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-drive-service/entity"
)

func TestInitialGrantsOnRootItem(t *testing.T) {
	repo := newTestRepo(t)
	perms := NewPermissionProvider(repo)
	owner := mustCreateUser(t, repo, "owner@example.com")

	root := &entity.Item{ID: uuid.New(), Name: "docs", Kind: entity.ItemKindFolder, OwnerID: owner.ID}
	require.NoError(t, repo.ItemRepo.Create(root))
	require.NoError(t, perms.InitialGrants(root, nil, owner.ID))

	grants, err := repo.PermissionRepo.FindByItemID(root.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, owner.ID, grants[0].UserID)
	assert.Equal(t, entity.PermissionEdit, grants[0].Level)
	assert.False(t, grants[0].Inherited)
}

func TestInitialGrantsCopyParentGrants(t *testing.T) {
	repo := newTestRepo(t)
	perms := NewPermissionProvider(repo)
	owner := mustCreateUser(t, repo, "owner@example.com")
	viewer := mustCreateUser(t, repo, "viewer@example.com")

	parent := &entity.Item{ID: uuid.New(), Name: "docs", Kind: entity.ItemKindFolder, OwnerID: owner.ID}
	require.NoError(t, repo.ItemRepo.Create(parent))
	require.NoError(t, perms.InitialGrants(parent, nil, owner.ID))
	require.NoError(t, perms.Share(parent, viewer.ID, entity.PermissionView))

	child := &entity.Item{ID: uuid.New(), Name: "notes.txt", Kind: entity.ItemKindFile, OwnerID: owner.ID, ParentID: &parent.ID}
	require.NoError(t, repo.ItemRepo.Create(child))
	require.NoError(t, perms.InitialGrants(child, parent, owner.ID))

	grants, err := repo.PermissionRepo.FindByItemID(child.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	byUser := make(map[uuid.UUID]entity.Permission)
	for _, g := range grants {
		byUser[g.UserID] = g
	}
	assert.Equal(t, entity.PermissionEdit, byUser[owner.ID].Level)
	assert.True(t, byUser[owner.ID].Inherited, "copied grants are always inherited, owner included")
	assert.Equal(t, entity.PermissionView, byUser[viewer.ID].Level)
	assert.True(t, byUser[viewer.ID].Inherited)
}

func TestSharePropagatesToWholeSubtree(t *testing.T) {
	repo := newTestRepo(t)
	perms := NewPermissionProvider(repo)
	owner := mustCreateUser(t, repo, "owner@example.com")
	grantee := mustCreateUser(t, repo, "grantee@example.com")

	root := &entity.Item{ID: uuid.New(), Name: "root", Kind: entity.ItemKindFolder, OwnerID: owner.ID}
	sub := &entity.Item{ID: uuid.New(), Name: "sub", Kind: entity.ItemKindFolder, OwnerID: owner.ID, ParentID: &root.ID}
	leaf := &entity.Item{ID: uuid.New(), Name: "leaf.txt", Kind: entity.ItemKindFile, OwnerID: owner.ID, ParentID: &sub.ID}
	for _, item := range []*entity.Item{root, sub, leaf} {
		require.NoError(t, repo.ItemRepo.Create(item))
	}

	require.NoError(t, perms.Share(root, grantee.ID, entity.PermissionView))

	rootGrant, err := repo.PermissionRepo.FindByItemAndUser(root.ID, grantee.ID)
	require.NoError(t, err)
	assert.False(t, rootGrant.Inherited)

	for _, descendant := range []uuid.UUID{sub.ID, leaf.ID} {
		grant, err := repo.PermissionRepo.FindByItemAndUser(descendant, grantee.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PermissionView, grant.Level)
		assert.True(t, grant.Inherited)
	}
}

func TestShareOverwritesExistingLevel(t *testing.T) {
	repo := newTestRepo(t)
	perms := NewPermissionProvider(repo)
	owner := mustCreateUser(t, repo, "owner@example.com")
	grantee := mustCreateUser(t, repo, "grantee@example.com")

	root := &entity.Item{ID: uuid.New(), Name: "root", Kind: entity.ItemKindFolder, OwnerID: owner.ID}
	leaf := &entity.Item{ID: uuid.New(), Name: "leaf.txt", Kind: entity.ItemKindFile, OwnerID: owner.ID, ParentID: &root.ID}
	require.NoError(t, repo.ItemRepo.Create(root))
	require.NoError(t, repo.ItemRepo.Create(leaf))

	// Downgrade after an upgrade: the most recent share always wins.
	require.NoError(t, perms.Share(root, grantee.ID, entity.PermissionEdit))
	require.NoError(t, perms.Share(root, grantee.ID, entity.PermissionView))

	for _, itemID := range []uuid.UUID{root.ID, leaf.ID} {
		grants, err := repo.PermissionRepo.FindByItemID(itemID)
		require.NoError(t, err)

		var forGrantee []entity.Permission
		for _, g := range grants {
			if g.UserID == grantee.ID {
				forGrantee = append(forGrantee, g)
			}
		}
		require.Len(t, forGrantee, 1, "repeated shares must not duplicate rows")
		assert.Equal(t, entity.PermissionView, forGrantee[0].Level)
	}
}

func TestCanViewAndCanEdit(t *testing.T) {
	repo := newTestRepo(t)
	perms := NewPermissionProvider(repo)
	owner := mustCreateUser(t, repo, "owner@example.com")
	viewer := mustCreateUser(t, repo, "viewer@example.com")
	editor := mustCreateUser(t, repo, "editor@example.com")
	stranger := mustCreateUser(t, repo, "stranger@example.com")

	item := &entity.Item{ID: uuid.New(), Name: "a.txt", Kind: entity.ItemKindFile, OwnerID: owner.ID}
	require.NoError(t, repo.ItemRepo.Create(item))
	require.NoError(t, perms.Share(item, viewer.ID, entity.PermissionView))
	require.NoError(t, perms.Share(item, editor.ID, entity.PermissionEdit))

	cases := []struct {
		name    string
		userID  uuid.UUID
		canView bool
		canEdit bool
	}{
		{"owner", owner.ID, true, true},
		{"viewer", viewer.ID, true, false},
		{"editor", editor.ID, true, true},
		{"stranger", stranger.ID, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			canView, err := perms.CanView(tc.userID, item)
			require.NoError(t, err)
			assert.Equal(t, tc.canView, canView)

			canEdit, err := perms.CanEdit(tc.userID, item)
			require.NoError(t, err)
			assert.Equal(t, tc.canEdit, canEdit)
		})
	}
}

func TestAccessChecksGateProviderOperations(t *testing.T) {
	repo := newTestRepo(t)
	blobs := newFakeBlobStore()
	items := newTestItemProvider(t, repo, blobs, nil, nil)
	owner := mustCreateUser(t, repo, "owner@example.com")
	stranger := mustCreateUser(t, repo, "stranger@example.com")
	ctx := context.Background()

	folder, err := items.CreateFolder(ctx, "private", nil, owner.ID)
	require.NoError(t, err)

	_, err = items.ListChildren(ctx, folder.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = items.CreateFolder(ctx, "intruder", &folder.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = items.SoftDelete(ctx, folder.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
