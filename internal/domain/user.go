package domain

import "time"

type Plan string

const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
	PlanPro  Plan = "pro"
)

// PlanLimits описывает лимиты тарифного плана
type PlanLimits struct {
	StorageLimit  int64 `json:"storage_limit"`
	MaxUploadSize int64 `json:"max_upload_size"`
}

const (
	MiB = 1024 * 1024
	GiB = 1024 * MiB
)

// Таблица тарифов: общий лимит хранилища и максимальный размер одной загрузки
var PlanTable = map[Plan]PlanLimits{
	PlanFree: {StorageLimit: 1 * GiB, MaxUploadSize: 10 * MiB},
	PlanPlus: {StorageLimit: 25 * GiB, MaxUploadSize: 100 * MiB},
	PlanPro:  {StorageLimit: 100 * GiB, MaxUploadSize: 1 * GiB},
}

func (p Plan) Valid() bool {
	_, ok := PlanTable[p]
	return ok
}

func (p Plan) Limits() PlanLimits {
	if limits, ok := PlanTable[p]; ok {
		return limits
	}
	return PlanTable[PlanFree]
}

// User представляет учетную запись квоты пользователя
type User struct {
	ID                string     `json:"id" db:"id"`
	Plan              Plan       `json:"plan" db:"plan"`
	StorageUsed       int64      `json:"storage_used" db:"storage_used"`
	StorageLimit      int64      `json:"storage_limit" db:"storage_limit"`
	FileCount         int        `json:"file_count" db:"file_count"`
	FolderCount       int        `json:"folder_count" db:"folder_count"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty" db:"subscription_start"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty" db:"subscription_end"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// StorageInfo возвращается в дашборд: использование квоты в читаемом виде
type StorageInfo struct {
	Plan               Plan    `json:"plan"`
	UsedBytes          int64   `json:"used_bytes"`
	LimitBytes         int64   `json:"limit_bytes"`
	UsedFormatted      string  `json:"used_formatted"`
	LimitFormatted     string  `json:"limit_formatted"`
	UsagePercent       float64 `json:"usage_percent"`
	FileCount          int     `json:"file_count"`
	FolderCount        int     `json:"folder_count"`
	MaxUploadSize      int64   `json:"max_upload_size"`
	MaxUploadFormatted string  `json:"max_upload_formatted"`
}

type UserPage struct {
	Users []User `json:"users"`
	Total int64  `json:"total"`
}

// AdminStats агрегированный снимок для админ-панели
type AdminStats struct {
	TotalUsers       int64            `json:"total_users"`
	TotalFiles       int64            `json:"total_files"`
	TotalFolders     int64            `json:"total_folders"`
	TotalStorageUsed int64            `json:"total_storage_used"`
	UsersByPlan      map[string]int64 `json:"users_by_plan"`
}
