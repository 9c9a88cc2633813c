package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (s *UserService) GetOrCreateUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	return s.userRepo.GetOrCreate(ctx, userID)
}

// UpdateUserPlan меняет тариф и его лимит. Текущее использование не
// проверяется: даунгрейд может оставить пользователя над лимитом,
// блокируются только новые загрузки
func (s *UserService) UpdateUserPlan(ctx context.Context, userID string, plan domain.Plan) (*domain.User, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("unknown plan %q: %w", plan, domain.ErrInvalidOperation)
	}

	if _, err := s.userRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	var subscriptionStart, subscriptionEnd *time.Time
	if plan != domain.PlanFree {
		now := time.Now().UTC()
		subscriptionStart = &now
	}

	limits := plan.Limits()
	if err := s.userRepo.UpdatePlan(ctx, userID, plan, limits.StorageLimit, subscriptionStart, subscriptionEnd); err != nil {
		return nil, err
	}

	return s.userRepo.GetOrCreate(ctx, userID)
}

// GetStorageInfo собирает производное представление квоты, ничего не меняя
func (s *UserService) GetStorageInfo(ctx context.Context, userID string) (*domain.StorageInfo, error) {
	user, err := s.userRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var usagePercent float64
	if user.StorageLimit > 0 {
		usagePercent = float64(user.StorageUsed) / float64(user.StorageLimit) * 100
		usagePercent = math.Round(usagePercent*10) / 10
	}

	maxUpload := user.Plan.Limits().MaxUploadSize

	return &domain.StorageInfo{
		Plan:               user.Plan,
		UsedBytes:          user.StorageUsed,
		LimitBytes:         user.StorageLimit,
		UsedFormatted:      FormatBytes(user.StorageUsed),
		LimitFormatted:     FormatBytes(user.StorageLimit),
		UsagePercent:       usagePercent,
		FileCount:          user.FileCount,
		FolderCount:        user.FolderCount,
		MaxUploadSize:      maxUpload,
		MaxUploadFormatted: FormatBytes(maxUpload),
	}, nil
}

// FormatBytes форматирует размер в двоичных единицах (база 1024)
func FormatBytes(size int64) string {
	const unit = 1024

	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	div := int64(unit)
	exp := 0
	for n := size / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %s", float64(size)/float64(div), units[exp])
}
