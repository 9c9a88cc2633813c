package domain

import (
	"time"

	"github.com/google/uuid"
)

type File struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Name        string     `json:"name" db:"name"`
	MIMEType    *string    `json:"mime_type,omitempty" db:"mime_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty" db:"folder_id"`
	OwnerID     string     `json:"owner_id" db:"owner_id"`
	StoragePath string     `json:"-" db:"storage_path"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type FileUpload struct {
	Name     string
	MIMEType string
	FolderID *uuid.UUID
	OwnerID  string
	Data     []byte
}

type FileDownload struct {
	File *File `json:"file"`
	Data []byte
}
