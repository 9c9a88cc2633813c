package domain

// TrashContent содержимое корзины пользователя, отсортированное по времени удаления
type TrashContent struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// DeleteInfo информация об окончательно удаляемом файле, нужна для очистки блобов
type DeleteInfo struct {
	UUID        string `db:"uuid"`
	OwnerID     string `db:"owner_id"`
	StoragePath string `db:"storage_path"`
	SizeBytes   int64  `db:"size_bytes"`
}

// CleanupResult результат ретенционной очистки корзины
type CleanupResult struct {
	FilesPurged   int   `json:"files_purged"`
	FoldersPurged int   `json:"folders_purged"`
	BytesFreed    int64 `json:"bytes_freed"`
}
