package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orbitdrive/internal/domain"
)

type PostgresTrashRepository struct {
	db *sqlx.DB
}

func NewTrashRepository(db *sqlx.DB) *PostgresTrashRepository {
	return &PostgresTrashRepository{db: db}
}

func (r *PostgresTrashRepository) GetTrashContent(ctx context.Context, ownerID string) (*domain.TrashContent, error) {
	content := &domain.TrashContent{
		Folders: []domain.Folder{},
		Files:   []domain.File{},
	}

	err := r.db.SelectContext(ctx, &content.Folders, `
        SELECT * FROM folders
        WHERE owner_id = $1 AND is_deleted
        ORDER BY deleted_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trashed folders: %w", err)
	}

	err = r.db.SelectContext(ctx, &content.Files, `
        SELECT * FROM files
        WHERE owner_id = $1 AND is_deleted
        ORDER BY deleted_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trashed files: %w", err)
	}

	return content, nil
}

func (r *PostgresTrashRepository) RestoreFile(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
        UPDATE files
        SET is_deleted = FALSE,
            deleted_at = NULL,
            updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $1 AND owner_id = $2 AND is_deleted`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to restore file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("trashed file %s: %w", id, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET file_count = file_count + 1,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $1`,
		ownerID)
	if err != nil {
		return fmt.Errorf("failed to update file count: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresTrashRepository) RestoreFolder(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Сначала возвращаем файлы удаленного поддерева, пока папки еще помечены
	restoreFilesQuery := `
        WITH RECURSIVE subtree AS (
            SELECT uuid FROM folders
            WHERE uuid = $1 AND owner_id = $2 AND is_deleted

            UNION ALL

            SELECT f.uuid
            FROM folders f
            INNER JOIN subtree s ON f.parent_id = s.uuid
            WHERE f.is_deleted
        )
        UPDATE files
        SET is_deleted = FALSE, deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
        WHERE owner_id = $2 AND is_deleted
        AND folder_id IN (SELECT uuid FROM subtree)`

	result, err := tx.ExecContext(ctx, restoreFilesQuery, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to restore files: %w", err)
	}

	filesRestored, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	restoreFoldersQuery := `
        WITH RECURSIVE subtree AS (
            SELECT uuid FROM folders
            WHERE uuid = $1 AND owner_id = $2 AND is_deleted

            UNION ALL

            SELECT f.uuid
            FROM folders f
            INNER JOIN subtree s ON f.parent_id = s.uuid
            WHERE f.is_deleted
        )
        UPDATE folders
        SET is_deleted = FALSE, deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
        WHERE uuid IN (SELECT uuid FROM subtree)`

	result, err = tx.ExecContext(ctx, restoreFoldersQuery, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to restore folders: %w", err)
	}

	foldersRestored, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if foldersRestored == 0 {
		return fmt.Errorf("trashed folder %s: %w", id, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET folder_count = folder_count + $1,
            file_count = file_count + $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $3`,
		foldersRestored, filesRestored, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresTrashRepository) DeleteFilePermanently(ctx context.Context, id uuid.UUID, ownerID string) (*domain.DeleteInfo, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var info domain.DeleteInfo
	err = tx.GetContext(ctx, &info, `
        SELECT uuid::text, owner_id, storage_path, size_bytes
        FROM files
        WHERE uuid = $1 AND owner_id = $2 AND is_deleted`,
		id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("trashed file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get file for deletion: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE uuid = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete file row: %w", err)
	}

	// Единственный путь, который реально освобождает квоту.
	// Счетчик файлов уже уменьшен при мягком удалении
	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET storage_used = GREATEST(0, storage_used - $1),
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $2`,
		info.SizeBytes, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update storage usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &info, nil
}

func (r *PostgresTrashRepository) DeleteFolderPermanently(ctx context.Context, id uuid.UUID, ownerID string) ([]domain.DeleteInfo, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Собираем удаленное поддерево папок
	var folderIDs []uuid.UUID
	err = tx.SelectContext(ctx, &folderIDs, `
        WITH RECURSIVE subtree AS (
            SELECT uuid FROM folders
            WHERE uuid = $1 AND owner_id = $2 AND is_deleted

            UNION ALL

            SELECT f.uuid
            FROM folders f
            INNER JOIN subtree s ON f.parent_id = s.uuid
            WHERE f.is_deleted
        )
        SELECT uuid FROM subtree`,
		id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect folder subtree: %w", err)
	}
	if len(folderIDs) == 0 {
		return nil, fmt.Errorf("trashed folder %s: %w", id, domain.ErrNotFound)
	}

	query, args, err := sqlx.In(`
        SELECT uuid::text, owner_id, storage_path, size_bytes
        FROM files
        WHERE is_deleted AND folder_id IN (?)`, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build file query: %w", err)
	}

	var infos []domain.DeleteInfo
	if err := tx.SelectContext(ctx, &infos, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to collect files for deletion: %w", err)
	}

	var bytesFreed int64
	for _, info := range infos {
		bytesFreed += info.SizeBytes
	}

	query, args, err = sqlx.In(`DELETE FROM files WHERE is_deleted AND folder_id IN (?)`, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build file delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to delete file rows: %w", err)
	}

	// Живые сущности, чей родитель исчезает, переезжают в корень:
	// индивидуально восстановленный потомок не должен нарушить внешние ключи
	query, args, err = sqlx.In(`UPDATE folders SET parent_id = NULL WHERE NOT is_deleted AND parent_id IN (?)`, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build folder detach: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to detach live folders: %w", err)
	}

	query, args, err = sqlx.In(`UPDATE files SET folder_id = NULL WHERE NOT is_deleted AND folder_id IN (?)`, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build file detach: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to detach live files: %w", err)
	}

	query, args, err = sqlx.In(`DELETE FROM folders WHERE uuid IN (?)`, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build folder delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to delete folder rows: %w", err)
	}

	if bytesFreed > 0 {
		_, err = tx.ExecContext(ctx, `
            UPDATE users
            SET storage_used = GREATEST(0, storage_used - $1),
                updated_at = CURRENT_TIMESTAMP
            WHERE id = $2`,
			bytesFreed, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to update storage usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return infos, nil
}

func (r *PostgresTrashRepository) RunCleanup(ctx context.Context, cutoff time.Time) ([]domain.DeleteInfo, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Находим файлы, подлежащие удалению
	var infos []domain.DeleteInfo
	err = tx.SelectContext(ctx, &infos, `
        SELECT uuid::text, owner_id, storage_path, size_bytes
        FROM files
        WHERE is_deleted AND deleted_at < $1`,
		cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find files for cleanup: %w", err)
	}

	// Возвращаем владельцам занятое место одним запросом по группам
	_, err = tx.ExecContext(ctx, `
        UPDATE users u
        SET storage_used = GREATEST(0, u.storage_used - s.total),
            updated_at = CURRENT_TIMESTAMP
        FROM (
            SELECT owner_id, SUM(size_bytes) AS total
            FROM files
            WHERE is_deleted AND deleted_at < $1
            GROUP BY owner_id
        ) s
        WHERE u.id = s.owner_id`,
		cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to release quota: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE is_deleted AND deleted_at < $1`, cutoff); err != nil {
		return nil, 0, fmt.Errorf("failed to delete file rows: %w", err)
	}

	// Отцепляем выживших потомков от удаляемых папок перед удалением строк
	_, err = tx.ExecContext(ctx, `
        UPDATE folders f
        SET parent_id = NULL
        WHERE f.parent_id IN (SELECT uuid FROM folders WHERE is_deleted AND deleted_at < $1)
        AND NOT (f.is_deleted AND f.deleted_at < $1)`,
		cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to detach surviving folders: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE files f
        SET folder_id = NULL
        WHERE f.folder_id IN (SELECT uuid FROM folders WHERE is_deleted AND deleted_at < $1)`,
		cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to detach surviving files: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE is_deleted AND deleted_at < $1`, cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to delete folder rows: %w", err)
	}

	foldersPurged, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return infos, int(foldersPurged), nil
}
