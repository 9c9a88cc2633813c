package domain

import (
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	UUID      uuid.UUID  `json:"uuid" db:"uuid"`
	Name      string     `json:"name" db:"name"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Breadcrumb один элемент пути от корня до текущей папки.
// Для синтетического корня ID равен nil.
type Breadcrumb struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name"`
}

type FolderContent struct {
	Folder      *Folder      `json:"folder"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	Folders     []Folder     `json:"folders"`
	Files       []File       `json:"files"`
}
