package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbitdrive/internal/domain"
)

func newFolderServiceForTest() (*FolderService, *fakeUserRepo, *fakeFolderRepo, *fakeFileRepo) {
	users := newFakeUserRepo()
	files := newFakeFileRepo(users)
	folders := newFakeFolderRepo(files)
	svc := NewFolderService(folders, files, users)
	return svc, users, folders, files
}

func TestCreateFolder(t *testing.T) {
	svc, _, _, _ := newFolderServiceForTest()
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, "user-1", "documents", nil)
	require.NoError(t, err)
	assert.Equal(t, "documents", folder.Name)
	assert.Equal(t, "user-1", folder.OwnerID)
	assert.Nil(t, folder.ParentID)

	child, err := svc.CreateFolder(ctx, "user-1", "invoices", &folder.UUID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, folder.UUID, *child.ParentID)
}

func TestCreateFolder_Validation(t *testing.T) {
	svc, _, _, _ := newFolderServiceForTest()
	ctx := context.Background()

	_, err := svc.CreateFolder(ctx, "user-1", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	missing := uuid.New()
	_, err = svc.CreateFolder(ctx, "user-1", "orphan", &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetFolderContents_Root(t *testing.T) {
	svc, _, _, _ := newFolderServiceForTest()
	ctx := context.Background()

	top, err := svc.CreateFolder(ctx, "user-1", "top", nil)
	require.NoError(t, err)
	_, err = svc.CreateFolder(ctx, "user-1", "nested", &top.UUID)
	require.NoError(t, err)

	content, err := svc.GetFolderContents(ctx, "user-1", nil)
	require.NoError(t, err)

	assert.Nil(t, content.Folder)
	require.Len(t, content.Breadcrumbs, 1)
	assert.Nil(t, content.Breadcrumbs[0].ID)
	assert.Equal(t, RootName, content.Breadcrumbs[0].Name)

	// В корне видна только папка верхнего уровня
	require.Len(t, content.Folders, 1)
	assert.Equal(t, "top", content.Folders[0].Name)
}

func TestGetFolderContents_Breadcrumbs(t *testing.T) {
	svc, _, _, _ := newFolderServiceForTest()
	ctx := context.Background()

	a, err := svc.CreateFolder(ctx, "user-1", "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, "user-1", "b", &a.UUID)
	require.NoError(t, err)
	c, err := svc.CreateFolder(ctx, "user-1", "c", &b.UUID)
	require.NoError(t, err)

	content, err := svc.GetFolderContents(ctx, "user-1", &c.UUID)
	require.NoError(t, err)

	require.NotNil(t, content.Folder)
	assert.Equal(t, c.UUID, content.Folder.UUID)

	// Путь от синтетического корня до самой папки
	require.Len(t, content.Breadcrumbs, 4)
	assert.Equal(t, RootName, content.Breadcrumbs[0].Name)
	assert.Equal(t, "a", content.Breadcrumbs[1].Name)
	assert.Equal(t, "b", content.Breadcrumbs[2].Name)
	assert.Equal(t, "c", content.Breadcrumbs[3].Name)
}

func TestGetFolderContents_MissingFolder(t *testing.T) {
	svc, _, _, _ := newFolderServiceForTest()
	ctx := context.Background()

	missing := uuid.New()
	_, err := svc.GetFolderContents(ctx, "user-1", &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMoveFolder_RejectsCycles(t *testing.T) {
	svc, _, folders, _ := newFolderServiceForTest()
	ctx := context.Background()

	a, err := svc.CreateFolder(ctx, "user-1", "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, "user-1", "b", &a.UUID)
	require.NoError(t, err)
	c, err := svc.CreateFolder(ctx, "user-1", "c", &b.UUID)
	require.NoError(t, err)

	// В саму себя
	err = svc.MoveFolder(ctx, "user-1", a.UUID, &a.UUID)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// Под собственного потомка
	err = svc.MoveFolder(ctx, "user-1", a.UUID, &c.UUID)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// В несуществующую папку
	missing := uuid.New()
	err = svc.MoveFolder(ctx, "user-1", a.UUID, &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Законный перенос: c из-под b в корень
	require.NoError(t, svc.MoveFolder(ctx, "user-1", c.UUID, nil))
	assert.Nil(t, folders.folders[c.UUID].ParentID)

	// И обратно под a
	require.NoError(t, svc.MoveFolder(ctx, "user-1", c.UUID, &a.UUID))
	assert.Equal(t, a.UUID, *folders.folders[c.UUID].ParentID)
}

func TestRenameFolder(t *testing.T) {
	svc, _, folders, _ := newFolderServiceForTest()
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, "user-1", "before", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RenameFolder(ctx, "user-1", folder.UUID, "after"))
	assert.Equal(t, "after", folders.folders[folder.UUID].Name)

	err = svc.RenameFolder(ctx, "user-1", folder.UUID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestDeleteFolder_CascadesToSubtree(t *testing.T) {
	svc, _, folders, _ := newFolderServiceForTest()
	ctx := context.Background()

	a, err := svc.CreateFolder(ctx, "user-1", "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateFolder(ctx, "user-1", "b", &a.UUID)
	require.NoError(t, err)
	other, err := svc.CreateFolder(ctx, "user-1", "other", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFolder(ctx, "user-1", a.UUID))

	assert.True(t, folders.folders[a.UUID].IsDeleted)
	assert.True(t, folders.folders[b.UUID].IsDeleted)
	assert.False(t, folders.folders[other.UUID].IsDeleted)
}
