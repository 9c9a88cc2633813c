package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbitdrive/internal/auth"
	"orbitdrive/internal/domain"
	"orbitdrive/internal/service"
)

// Минимальные заглушки репозиториев для тестов HTTP-слоя

type stubFileRepo struct {
	files map[uuid.UUID]*domain.File
}

func (s *stubFileRepo) CreateWithQuota(context.Context, *domain.File) error {
	return errors.New("not implemented")
}

func (s *stubFileRepo) GetByUUID(_ context.Context, id uuid.UUID, ownerID string) (*domain.File, error) {
	file, ok := s.files[id]
	if !ok || file.OwnerID != ownerID || file.IsDeleted {
		return nil, nil
	}
	copied := *file
	return &copied, nil
}

func (s *stubFileRepo) ListByFolder(context.Context, string, *uuid.UUID) ([]domain.File, error) {
	return nil, errors.New("not implemented")
}

func (s *stubFileRepo) Rename(context.Context, uuid.UUID, string, string) error {
	return errors.New("not implemented")
}

func (s *stubFileRepo) Move(context.Context, uuid.UUID, string, *uuid.UUID) error {
	return errors.New("not implemented")
}

func (s *stubFileRepo) SoftDelete(context.Context, uuid.UUID, string) error {
	return errors.New("not implemented")
}

type stubFolderRepo struct{}

func (s *stubFolderRepo) Create(context.Context, *domain.Folder) error {
	return errors.New("not implemented")
}

func (s *stubFolderRepo) GetByUUID(context.Context, uuid.UUID, string) (*domain.Folder, error) {
	return nil, nil
}

func (s *stubFolderRepo) GetBreadcrumbs(context.Context, uuid.UUID, string) ([]domain.Breadcrumb, error) {
	return nil, errors.New("not implemented")
}

func (s *stubFolderRepo) ListByParent(context.Context, string, *uuid.UUID) ([]domain.Folder, error) {
	return nil, errors.New("not implemented")
}

func (s *stubFolderRepo) Rename(context.Context, uuid.UUID, string, string) error {
	return errors.New("not implemented")
}

func (s *stubFolderRepo) Move(context.Context, uuid.UUID, string, *uuid.UUID) error {
	return errors.New("not implemented")
}

func (s *stubFolderRepo) IsDescendant(context.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubFolderRepo) SoftDeleteCascade(context.Context, uuid.UUID, string) error {
	return errors.New("not implemented")
}

type stubUserRepo struct{}

func (s *stubUserRepo) GetOrCreate(_ context.Context, userID string) (*domain.User, error) {
	limits := domain.PlanFree.Limits()
	return &domain.User{ID: userID, Plan: domain.PlanFree, StorageLimit: limits.StorageLimit}, nil
}

func (s *stubUserRepo) UpdatePlan(context.Context, string, domain.Plan, int64, *time.Time, *time.Time) error {
	return errors.New("not implemented")
}

func (s *stubUserRepo) List(context.Context, int, int) ([]domain.User, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (s *stubUserRepo) GetAdminStats(context.Context) (*domain.AdminStats, error) {
	return nil, errors.New("not implemented")
}

type stubBlob struct{}

func (stubBlob) Save(context.Context, string, uuid.UUID, []byte) (string, error) {
	return "", errors.New("not implemented")
}

func (stubBlob) Read(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (stubBlob) Delete(context.Context, string) error { return nil }

func newFileRouter(files *stubFileRepo) chi.Router {
	fileService := service.NewFileService(files, &stubFolderRepo{}, &stubUserRepo{}, stubBlob{})
	h := NewFileHandler(fileService)

	r := chi.NewRouter()
	r.Get("/v1/files/{uuid}/info", h.GetFileInfo)
	return r
}

func TestGetFileInfo_MissingFileIs404(t *testing.T) {
	router := newFileRouter(&stubFileRepo{files: map[uuid.UUID]*domain.File{}})

	req := httptest.NewRequest("GET", "/v1/files/"+uuid.NewString()+"/info", nil)
	req.Header.Set(auth.UserHeader, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Отсутствующий файл — это 404, а не 200 с телом null
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEqual(t, "null", rec.Body.String())
}

func TestGetFileInfo_TrashedFileIs404(t *testing.T) {
	fileID := uuid.New()
	now := time.Now().UTC()
	router := newFileRouter(&stubFileRepo{files: map[uuid.UUID]*domain.File{
		fileID: {UUID: fileID, Name: "gone.txt", OwnerID: "user-1", IsDeleted: true, DeletedAt: &now},
	}})

	req := httptest.NewRequest("GET", "/v1/files/"+fileID.String()+"/info", nil)
	req.Header.Set(auth.UserHeader, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFileInfo_ReturnsFile(t *testing.T) {
	fileID := uuid.New()
	router := newFileRouter(&stubFileRepo{files: map[uuid.UUID]*domain.File{
		fileID: {UUID: fileID, Name: "report.pdf", OwnerID: "user-1", SizeBytes: 1234},
	}})

	req := httptest.NewRequest("GET", "/v1/files/"+fileID.String()+"/info", nil)
	req.Header.Set(auth.UserHeader, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, fileID, got.UUID)
	assert.Equal(t, "report.pdf", got.Name)
}

func TestGetFileInfo_Unauthorized(t *testing.T) {
	router := newFileRouter(&stubFileRepo{files: map[uuid.UUID]*domain.File{}})

	req := httptest.NewRequest("GET", "/v1/files/"+uuid.NewString()+"/info", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
