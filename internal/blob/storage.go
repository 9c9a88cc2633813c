package blob

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// Storage определяет интерфейс хранилища блобов.
// Один блоб на загруженный файл; ключ строится из владельца и uuid файла,
// имя файла в ключе не участвует (переименование блоб не трогает).
type Storage interface {
	// Save записывает байты файла и возвращает путь хранения
	Save(ctx context.Context, ownerID string, fileID uuid.UUID, data []byte) (string, error)

	// Read читает блоб целиком по сохраненному пути
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete удаляет блоб; отсутствие блоба не считается ошибкой
	Delete(ctx context.Context, path string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeOwnerID превращает внешний идентификатор владельца
// в безопасное имя директории
func SanitizeOwnerID(ownerID string) string {
	return unsafeChars.ReplaceAllString(ownerID, "_")
}
