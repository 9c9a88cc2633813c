package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"orbitdrive/internal/domain"
)

// Фейковые реализации репозиториев для тестов сервисного слоя

type fakeUserRepo struct {
	users map[string]*domain.User

	lastListLimit  int
	lastListOffset int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) GetOrCreate(_ context.Context, userID string) (*domain.User, error) {
	if user, ok := r.users[userID]; ok {
		copied := *user
		return &copied, nil
	}

	limits := domain.PlanFree.Limits()
	user := &domain.User{
		ID:           userID,
		Plan:         domain.PlanFree,
		StorageLimit: limits.StorageLimit,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	r.users[userID] = user

	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) UpdatePlan(_ context.Context, userID string, plan domain.Plan, newLimit int64, subscriptionStart, subscriptionEnd *time.Time) error {
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}

	user.Plan = plan
	user.StorageLimit = newLimit
	user.SubscriptionStart = subscriptionStart
	user.SubscriptionEnd = subscriptionEnd
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, int64, error) {
	r.lastListLimit = limit
	r.lastListOffset = offset

	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	return users, int64(len(r.users)), nil
}

func (r *fakeUserRepo) GetAdminStats(_ context.Context) (*domain.AdminStats, error) {
	stats := &domain.AdminStats{UsersByPlan: make(map[string]int64)}
	for _, user := range r.users {
		stats.TotalUsers++
		stats.TotalFiles += int64(user.FileCount)
		stats.TotalFolders += int64(user.FolderCount)
		stats.TotalStorageUsed += user.StorageUsed
		stats.UsersByPlan[string(user.Plan)]++
	}
	return stats, nil
}

type fakeFolderRepo struct {
	folders map[uuid.UUID]*domain.Folder
	files   *fakeFileRepo
}

func newFakeFolderRepo(files *fakeFileRepo) *fakeFolderRepo {
	return &fakeFolderRepo{
		folders: make(map[uuid.UUID]*domain.Folder),
		files:   files,
	}
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *domain.Folder) error {
	folder.CreatedAt = time.Now().UTC()
	folder.UpdatedAt = folder.CreatedAt

	copied := *folder
	r.folders[folder.UUID] = &copied

	if user, ok := r.files.users.users[folder.OwnerID]; ok {
		user.FolderCount++
	}
	return nil
}

func (r *fakeFolderRepo) GetByUUID(_ context.Context, id uuid.UUID, ownerID string) (*domain.Folder, error) {
	folder, ok := r.folders[id]
	if !ok || folder.OwnerID != ownerID || folder.IsDeleted {
		return nil, nil
	}

	copied := *folder
	return &copied, nil
}

func (r *fakeFolderRepo) GetBreadcrumbs(_ context.Context, id uuid.UUID, ownerID string) ([]domain.Breadcrumb, error) {
	var chain []domain.Breadcrumb
	current := r.folders[id]
	for current != nil && current.OwnerID == ownerID {
		folderID := current.UUID
		chain = append([]domain.Breadcrumb{{ID: &folderID, Name: current.Name}}, chain...)
		if current.ParentID == nil {
			break
		}
		current = r.folders[*current.ParentID]
	}
	return chain, nil
}

func (r *fakeFolderRepo) ListByParent(_ context.Context, ownerID string, parentID *uuid.UUID) ([]domain.Folder, error) {
	var result []domain.Folder
	for _, folder := range r.folders {
		if folder.OwnerID != ownerID || folder.IsDeleted {
			continue
		}
		if !sameParent(folder.ParentID, parentID) {
			continue
		}
		result = append(result, *folder)
	}
	return result, nil
}

func (r *fakeFolderRepo) Rename(_ context.Context, id uuid.UUID, ownerID, newName string) error {
	folder, ok := r.folders[id]
	if !ok || folder.OwnerID != ownerID || folder.IsDeleted {
		return domain.ErrNotFound
	}
	folder.Name = newName
	return nil
}

func (r *fakeFolderRepo) Move(_ context.Context, id uuid.UUID, ownerID string, newParentID *uuid.UUID) error {
	folder, ok := r.folders[id]
	if !ok || folder.OwnerID != ownerID || folder.IsDeleted {
		return domain.ErrNotFound
	}
	folder.ParentID = newParentID
	return nil
}

func (r *fakeFolderRepo) IsDescendant(_ context.Context, ancestorID, nodeID uuid.UUID, ownerID string) (bool, error) {
	current := r.folders[nodeID]
	for current != nil && current.OwnerID == ownerID {
		if current.UUID == ancestorID {
			return true, nil
		}
		if current.ParentID == nil {
			break
		}
		current = r.folders[*current.ParentID]
	}
	return false, nil
}

func (r *fakeFolderRepo) SoftDeleteCascade(_ context.Context, id uuid.UUID, ownerID string) error {
	root, ok := r.folders[id]
	if !ok || root.OwnerID != ownerID || root.IsDeleted {
		return domain.ErrNotFound
	}

	now := time.Now().UTC()
	foldersMarked, filesMarked := r.markDeleted(root, now)

	if user, ok := r.files.users.users[ownerID]; ok {
		user.FolderCount = max(0, user.FolderCount-foldersMarked)
		user.FileCount = max(0, user.FileCount-filesMarked)
	}
	return nil
}

func (r *fakeFolderRepo) markDeleted(folder *domain.Folder, now time.Time) (foldersMarked, filesMarked int) {
	folder.IsDeleted = true
	folder.DeletedAt = &now
	foldersMarked = 1

	for _, file := range r.files.files {
		if file.FolderID != nil && *file.FolderID == folder.UUID && !file.IsDeleted {
			file.IsDeleted = true
			file.DeletedAt = &now
			filesMarked++
		}
	}

	for _, child := range r.folders {
		if child.ParentID != nil && *child.ParentID == folder.UUID && !child.IsDeleted {
			nf, nfi := r.markDeleted(child, now)
			foldersMarked += nf
			filesMarked += nfi
		}
	}
	return foldersMarked, filesMarked
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeFileRepo struct {
	files map[uuid.UUID]*domain.File
	users *fakeUserRepo

	createErr error
}

func newFakeFileRepo(users *fakeUserRepo) *fakeFileRepo {
	return &fakeFileRepo{
		files: make(map[uuid.UUID]*domain.File),
		users: users,
	}
}

func (r *fakeFileRepo) CreateWithQuota(_ context.Context, file *domain.File) error {
	if r.createErr != nil {
		return r.createErr
	}

	user, ok := r.users.users[file.OwnerID]
	if !ok {
		return domain.ErrNotFound
	}
	if user.StorageUsed+file.SizeBytes > user.StorageLimit {
		return domain.ErrQuotaExceeded
	}

	user.StorageUsed += file.SizeBytes
	user.FileCount++

	file.CreatedAt = time.Now().UTC()
	file.UpdatedAt = file.CreatedAt

	copied := *file
	r.files[file.UUID] = &copied
	return nil
}

func (r *fakeFileRepo) GetByUUID(_ context.Context, id uuid.UUID, ownerID string) (*domain.File, error) {
	file, ok := r.files[id]
	if !ok || file.OwnerID != ownerID || file.IsDeleted {
		return nil, nil
	}

	copied := *file
	return &copied, nil
}

func (r *fakeFileRepo) ListByFolder(_ context.Context, ownerID string, folderID *uuid.UUID) ([]domain.File, error) {
	var result []domain.File
	for _, file := range r.files {
		if file.OwnerID != ownerID || file.IsDeleted {
			continue
		}
		if !sameParent(file.FolderID, folderID) {
			continue
		}
		result = append(result, *file)
	}
	return result, nil
}

func (r *fakeFileRepo) Rename(_ context.Context, id uuid.UUID, ownerID, newName string) error {
	file, ok := r.files[id]
	if !ok || file.OwnerID != ownerID || file.IsDeleted {
		return domain.ErrNotFound
	}
	file.Name = newName
	return nil
}

func (r *fakeFileRepo) Move(_ context.Context, id uuid.UUID, ownerID string, newFolderID *uuid.UUID) error {
	file, ok := r.files[id]
	if !ok || file.OwnerID != ownerID || file.IsDeleted {
		return domain.ErrNotFound
	}
	file.FolderID = newFolderID
	return nil
}

func (r *fakeFileRepo) SoftDelete(_ context.Context, id uuid.UUID, ownerID string) error {
	file, ok := r.files[id]
	if !ok || file.OwnerID != ownerID || file.IsDeleted {
		return domain.ErrNotFound
	}

	now := time.Now().UTC()
	file.IsDeleted = true
	file.DeletedAt = &now

	if user, ok := r.users.users[ownerID]; ok && user.FileCount > 0 {
		user.FileCount--
	}
	return nil
}

// fakeTrashRepo работает поверх общих карт пользовательского, папочного и
// файлового фейков, повторяя семантику SQL-репозитория корзины
type fakeTrashRepo struct {
	users   *fakeUserRepo
	folders *fakeFolderRepo
	files   *fakeFileRepo

	cleanupCutoff time.Time
}

func newFakeTrashRepo(users *fakeUserRepo, folders *fakeFolderRepo, files *fakeFileRepo) *fakeTrashRepo {
	return &fakeTrashRepo{
		users:   users,
		folders: folders,
		files:   files,
	}
}

func (r *fakeTrashRepo) GetTrashContent(_ context.Context, ownerID string) (*domain.TrashContent, error) {
	content := &domain.TrashContent{
		Folders: []domain.Folder{},
		Files:   []domain.File{},
	}

	for _, folder := range r.folders.folders {
		if folder.OwnerID == ownerID && folder.IsDeleted {
			content.Folders = append(content.Folders, *folder)
		}
	}
	for _, file := range r.files.files {
		if file.OwnerID == ownerID && file.IsDeleted {
			content.Files = append(content.Files, *file)
		}
	}

	sort.Slice(content.Folders, func(i, j int) bool {
		return content.Folders[i].DeletedAt.After(*content.Folders[j].DeletedAt)
	})
	sort.Slice(content.Files, func(i, j int) bool {
		return content.Files[i].DeletedAt.After(*content.Files[j].DeletedAt)
	})

	return content, nil
}

func (r *fakeTrashRepo) RestoreFile(_ context.Context, id uuid.UUID, ownerID string) error {
	file, ok := r.files.files[id]
	if !ok || file.OwnerID != ownerID || !file.IsDeleted {
		return domain.ErrNotFound
	}

	file.IsDeleted = false
	file.DeletedAt = nil

	if user, ok := r.users.users[ownerID]; ok {
		user.FileCount++
	}
	return nil
}

func (r *fakeTrashRepo) RestoreFolder(_ context.Context, id uuid.UUID, ownerID string) error {
	root, ok := r.folders.folders[id]
	if !ok || root.OwnerID != ownerID || !root.IsDeleted {
		return domain.ErrNotFound
	}

	foldersRestored, filesRestored := r.restoreSubtree(root)

	if user, ok := r.users.users[ownerID]; ok {
		user.FolderCount += foldersRestored
		user.FileCount += filesRestored
	}
	return nil
}

func (r *fakeTrashRepo) restoreSubtree(folder *domain.Folder) (foldersRestored, filesRestored int) {
	folder.IsDeleted = false
	folder.DeletedAt = nil
	foldersRestored = 1

	for _, file := range r.files.files {
		if file.FolderID != nil && *file.FolderID == folder.UUID && file.IsDeleted {
			file.IsDeleted = false
			file.DeletedAt = nil
			filesRestored++
		}
	}

	for _, child := range r.folders.folders {
		if child.ParentID != nil && *child.ParentID == folder.UUID && child.IsDeleted {
			nf, nfi := r.restoreSubtree(child)
			foldersRestored += nf
			filesRestored += nfi
		}
	}
	return foldersRestored, filesRestored
}

func (r *fakeTrashRepo) DeleteFilePermanently(_ context.Context, id uuid.UUID, ownerID string) (*domain.DeleteInfo, error) {
	file, ok := r.files.files[id]
	if !ok || file.OwnerID != ownerID || !file.IsDeleted {
		return nil, domain.ErrNotFound
	}

	info := &domain.DeleteInfo{
		UUID:        file.UUID.String(),
		OwnerID:     file.OwnerID,
		StoragePath: file.StoragePath,
		SizeBytes:   file.SizeBytes,
	}

	delete(r.files.files, id)

	// Квота освобождается только здесь; счетчик файлов уменьшен мягким удалением
	if user, ok := r.users.users[ownerID]; ok {
		user.StorageUsed = max(0, user.StorageUsed-file.SizeBytes)
	}
	return info, nil
}

func (r *fakeTrashRepo) DeleteFolderPermanently(_ context.Context, id uuid.UUID, ownerID string) ([]domain.DeleteInfo, error) {
	root, ok := r.folders.folders[id]
	if !ok || root.OwnerID != ownerID || !root.IsDeleted {
		return nil, domain.ErrNotFound
	}

	subtree := map[uuid.UUID]bool{}
	r.collectDeletedSubtree(root, subtree)

	var infos []domain.DeleteInfo
	var bytesFreed int64
	for fileID, file := range r.files.files {
		if file.FolderID != nil && subtree[*file.FolderID] && file.IsDeleted {
			infos = append(infos, domain.DeleteInfo{
				UUID:        file.UUID.String(),
				OwnerID:     file.OwnerID,
				StoragePath: file.StoragePath,
				SizeBytes:   file.SizeBytes,
			})
			bytesFreed += file.SizeBytes
			delete(r.files.files, fileID)
		}
	}

	// Живые потомки переезжают в корень, чтобы не повиснуть на удаленном родителе
	for _, folder := range r.folders.folders {
		if folder.ParentID != nil && subtree[*folder.ParentID] && !folder.IsDeleted {
			folder.ParentID = nil
		}
	}
	for _, file := range r.files.files {
		if file.FolderID != nil && subtree[*file.FolderID] && !file.IsDeleted {
			file.FolderID = nil
		}
	}

	for folderID := range subtree {
		delete(r.folders.folders, folderID)
	}

	if user, ok := r.users.users[ownerID]; ok {
		user.StorageUsed = max(0, user.StorageUsed-bytesFreed)
	}
	return infos, nil
}

func (r *fakeTrashRepo) collectDeletedSubtree(folder *domain.Folder, subtree map[uuid.UUID]bool) {
	subtree[folder.UUID] = true
	for _, child := range r.folders.folders {
		if child.ParentID != nil && *child.ParentID == folder.UUID && child.IsDeleted {
			r.collectDeletedSubtree(child, subtree)
		}
	}
}

func (r *fakeTrashRepo) RunCleanup(_ context.Context, cutoff time.Time) ([]domain.DeleteInfo, int, error) {
	r.cleanupCutoff = cutoff

	var infos []domain.DeleteInfo
	for fileID, file := range r.files.files {
		if !file.IsDeleted || file.DeletedAt == nil || !file.DeletedAt.Before(cutoff) {
			continue
		}
		infos = append(infos, domain.DeleteInfo{
			UUID:        file.UUID.String(),
			OwnerID:     file.OwnerID,
			StoragePath: file.StoragePath,
			SizeBytes:   file.SizeBytes,
		})
		if user, ok := r.users.users[file.OwnerID]; ok {
			user.StorageUsed = max(0, user.StorageUsed-file.SizeBytes)
		}
		delete(r.files.files, fileID)
	}

	expired := map[uuid.UUID]bool{}
	for folderID, folder := range r.folders.folders {
		if folder.IsDeleted && folder.DeletedAt != nil && folder.DeletedAt.Before(cutoff) {
			expired[folderID] = true
		}
	}

	for _, folder := range r.folders.folders {
		if folder.ParentID != nil && expired[*folder.ParentID] && !expired[folder.UUID] {
			folder.ParentID = nil
		}
	}
	for _, file := range r.files.files {
		if file.FolderID != nil && expired[*file.FolderID] {
			file.FolderID = nil
		}
	}

	for folderID := range expired {
		delete(r.folders.folders, folderID)
	}

	return infos, len(expired), nil
}

// fakeBlob хранит блобы в памяти и записывает удаления
type fakeBlob struct {
	blobs   map[string][]byte
	deleted []string

	deleteErr error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{blobs: make(map[string][]byte)}
}

func (b *fakeBlob) Save(_ context.Context, ownerID string, fileID uuid.UUID, data []byte) (string, error) {
	path := fmt.Sprintf("%s/%s", ownerID, fileID)
	b.blobs[path] = data
	return path, nil
}

func (b *fakeBlob) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := b.blobs[path]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", path)
	}
	return data, nil
}

func (b *fakeBlob) Delete(_ context.Context, path string) error {
	b.deleted = append(b.deleted, path)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.blobs, path)
	return nil
}
